package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ArticleStatus represents the editorial state of an insight article
type ArticleStatus string

const (
	ArticleDraft     ArticleStatus = "draft"
	ArticleScheduled ArticleStatus = "scheduled"
	ArticlePublished ArticleStatus = "published"
	ArticleArchived  ArticleStatus = "archived"
)

// Valid returns true for known statuses
func (s ArticleStatus) Valid() bool {
	switch s {
	case ArticleDraft, ArticleScheduled, ArticlePublished, ArticleArchived:
		return true
	}
	return false
}

// BlockType discriminates body blocks
type BlockType string

const (
	BlockParagraph    BlockType = "paragraph"
	BlockSection      BlockType = "section"
	BlockBulletList   BlockType = "bulletList"
	BlockNumberedList BlockType = "numberedList"
	BlockQuote        BlockType = "quote"
	BlockDiagram      BlockType = "diagram"
	BlockChart        BlockType = "chart"
	BlockCallout      BlockType = "callout"
)

// BodyBlock is one block of article content. Which fields are meaningful
// depends on Type.
type BodyBlock struct {
	Type        BlockType       `json:"type"`
	Content     string          `json:"content,omitempty"`
	Heading     string          `json:"heading,omitempty"`
	Items       []string        `json:"items,omitempty"`
	Attribution string          `json:"attribution,omitempty"`
	DiagramType string          `json:"diagramType,omitempty"`
	ChartType   string          `json:"chartType,omitempty"`
	Caption     string          `json:"caption,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// Validate checks that the block carries the fields its type requires
func (b BodyBlock) Validate() error {
	switch b.Type {
	case BlockParagraph, BlockCallout:
		if b.Content == "" {
			return fmt.Errorf("%s block requires content", b.Type)
		}
	case BlockSection:
		if b.Heading == "" {
			return fmt.Errorf("section block requires heading")
		}
	case BlockBulletList, BlockNumberedList:
		if len(b.Items) == 0 {
			return fmt.Errorf("%s block requires items", b.Type)
		}
	case BlockQuote:
		if b.Content == "" {
			return fmt.Errorf("quote block requires content")
		}
	case BlockDiagram:
		if b.DiagramType == "" {
			return fmt.Errorf("diagram block requires diagramType")
		}
	case BlockChart:
		if b.ChartType == "" {
			return fmt.Errorf("chart block requires chartType")
		}
	default:
		return fmt.Errorf("unknown block type %q", b.Type)
	}
	return nil
}

// Article is an insight article managed through the admin editor
type Article struct {
	ID                      string        `json:"id"`
	Slug                    string        `json:"slug"`
	Title                   string        `json:"title"`
	Thesis                  string        `json:"thesis"`
	Summary                 string        `json:"summary"`
	ResearchType            string        `json:"researchType"`
	Category                string        `json:"category"`
	Tags                    []string      `json:"tags"`
	CampaignTag             *string       `json:"campaignTag"`
	PublishDate             time.Time     `json:"publishDate"`
	ReadTimeMinutes         int           `json:"readTimeMinutes"`
	CTAType                 string        `json:"ctaType"`
	IsPinned                bool          `json:"isPinned"`
	IsCampaignFeatured      bool          `json:"isCampaignFeatured"`
	PrimaryConversionTarget string        `json:"primaryConversionTarget"`
	External                bool          `json:"external"`
	ExternalURL             *string       `json:"externalUrl"`
	SEOTitle                string        `json:"seoTitle"`
	SEODescription          string        `json:"seoDescription"`
	OGImage                 string        `json:"ogImage"`
	CoverImage              *string       `json:"coverImage"`
	BodyBlocks              []BodyBlock   `json:"bodyBlocks"`
	Status                  ArticleStatus `json:"status"`
	UpdatedAt               time.Time     `json:"updatedAt"`
}

// IsLive reports whether the article is visible on the public site at now.
// A scheduled article goes live once its publish date has passed.
func (a *Article) IsLive(now time.Time) bool {
	switch a.Status {
	case ArticlePublished:
		return true
	case ArticleScheduled:
		return !a.PublishDate.After(now)
	}
	return false
}

// Meta returns the article without body blocks
func (a *Article) Meta() *ArticleMeta {
	m := ArticleMeta(*a)
	m.BodyBlocks = nil
	return &m
}

// ArticleMeta is an article serialized without its body
type ArticleMeta Article

// MarshalJSON drops bodyBlocks from the payload
func (m ArticleMeta) MarshalJSON() ([]byte, error) {
	type meta ArticleMeta
	return json.Marshal(struct {
		meta
		BodyBlocks []BodyBlock `json:"bodyBlocks,omitempty"`
	}{meta: meta(m)})
}

// ArticleFilter selects public articles
type ArticleFilter struct {
	Category string
	Tags     []string
	Query    string
}

// ArticleSort orders admin listings
type ArticleSort struct {
	Key string // title | status | category | publishDate
	Asc bool
}
