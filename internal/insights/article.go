package insights

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/onedigit/site-engine/internal/models"
)

var (
	// ErrArticleNotFound is returned when no article matches an id or slug
	ErrArticleNotFound = errors.New("article not found")
	// ErrSlugTaken is returned when another article already uses a slug
	ErrSlugTaken = errors.New("slug already in use")
	// ErrInvalidArticle wraps every article validation failure
	ErrInvalidArticle = errors.New("invalid article")
)

const wordsPerMinute = 200

var (
	slugPattern  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugify lowercases text and joins alphanumeric runs with hyphens
func Slugify(text string) string {
	return strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(text), "-"), "-")
}

// ReadTime estimates reading minutes from the words in the body blocks
func ReadTime(blocks []models.BodyBlock) int {
	words := 0
	for _, b := range blocks {
		words += len(strings.Fields(b.Content))
		for _, item := range b.Items {
			words += len(strings.Fields(item))
		}
	}
	return max(1, int(math.Ceil(float64(words)/wordsPerMinute)))
}

// MissingFields lists the editorial fields an article still lacks
func MissingFields(a *models.Article) []string {
	var missing []string
	if strings.TrimSpace(a.Thesis) == "" {
		missing = append(missing, "thesis")
	}
	if strings.TrimSpace(a.Category) == "" {
		missing = append(missing, "category")
	}
	if strings.TrimSpace(a.CTAType) == "" {
		missing = append(missing, "ctaType")
	}
	if strings.TrimSpace(a.Summary) == "" {
		missing = append(missing, "summary")
	}
	return missing
}

func normalize(a *models.Article) {
	a.Title = strings.TrimSpace(a.Title)
	a.Slug = strings.TrimSpace(a.Slug)
	if a.Slug == "" {
		a.Slug = Slugify(a.Title)
	}
	a.Category = strings.TrimSpace(a.Category)
	a.CTAType = strings.TrimSpace(a.CTAType)

	tags := make([]string, 0, len(a.Tags))
	seen := make(map[string]bool, len(a.Tags))
	for _, t := range a.Tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}
	a.Tags = tags

	if a.BodyBlocks == nil {
		a.BodyBlocks = []models.BodyBlock{}
	}
	if a.Status == "" {
		a.Status = models.ArticleDraft
	}
	if a.ReadTimeMinutes <= 0 {
		a.ReadTimeMinutes = ReadTime(a.BodyBlocks)
	}
}

func validate(a *models.Article) error {
	var errs []error

	if a.Title == "" {
		errs = append(errs, errors.New("title is required"))
	}
	if !slugPattern.MatchString(a.Slug) {
		errs = append(errs, fmt.Errorf("slug %q must be lowercase words joined by hyphens", a.Slug))
	}
	if !a.Status.Valid() {
		errs = append(errs, fmt.Errorf("unknown status %q", a.Status))
	}
	if a.CTAType != "" && !KnownCTAType(a.CTAType) {
		errs = append(errs, fmt.Errorf("unknown ctaType %q", a.CTAType))
	}
	if a.External && (a.ExternalURL == nil || *a.ExternalURL == "") {
		errs = append(errs, errors.New("externalUrl is required for external articles"))
	}
	if a.Status == models.ArticleScheduled && a.PublishDate.IsZero() {
		errs = append(errs, errors.New("scheduled articles need a publishDate"))
	}
	if a.Status == models.ArticlePublished {
		for _, field := range MissingFields(a) {
			errs = append(errs, fmt.Errorf("%s is required to publish", field))
		}
	}
	for i, b := range a.BodyBlocks {
		if err := b.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("bodyBlocks[%d]: %w", i, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidArticle, errors.Join(errs...))
	}
	return nil
}
