package insights

import (
	"time"

	"github.com/onedigit/site-engine/internal/models"
)

const defaultOGImage = "/images/og/insights-default.png"

// Canonical returns the public URL of an article
func Canonical(siteURL, slug string) string {
	return siteURL + "/insights/" + slug
}

// ArticleSchema builds the schema.org Article JSON-LD document
func ArticleSchema(a *models.Article, siteURL string) map[string]any {
	url := Canonical(siteURL, a.Slug)

	image := siteURL + defaultOGImage
	if a.OGImage != "" {
		image = siteURL + a.OGImage
	}

	org := map[string]any{
		"@type": "Organization",
		"name":  "1Digit",
		"url":   siteURL,
	}

	return map[string]any{
		"@context":         "https://schema.org",
		"@type":            "Article",
		"headline":         a.Title,
		"description":      a.Summary,
		"datePublished":    a.PublishDate.UTC().Format(time.RFC3339),
		"url":              url,
		"image":            image,
		"mainEntityOfPage": map[string]any{"@type": "WebPage", "@id": url},
		"author":           org,
		"publisher": map[string]any{
			"@type": "Organization",
			"name":  "1Digit",
			"url":   siteURL,
			"logo":  map[string]any{"@type": "ImageObject", "url": siteURL + "/favicon.svg"},
		},
	}
}
