package insights

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/onedigit/site-engine/internal/models"
	"github.com/onedigit/site-engine/internal/storage"
)

// Store persists insight articles
type Store interface {
	CreateArticle(ctx context.Context, a *models.Article) error
	GetArticle(ctx context.Context, id string) (*models.Article, error)
	GetArticleBySlug(ctx context.Context, slug string) (*models.Article, error)
	UpdateArticle(ctx context.Context, a *models.Article) error
	DeleteArticle(ctx context.Context, id string) error
	ListArticles(ctx context.Context) ([]*models.Article, error)
	SetPinned(ctx context.Context, id string, pinned bool) error
	CountArticles(ctx context.Context) (int, error)
}

// ArticleView is the public detail payload for one article
type ArticleView struct {
	Article   *models.Article `json:"article"`
	CTA       CTAConfig       `json:"cta"`
	Canonical string          `json:"canonical"`
	JSONLD    map[string]any  `json:"jsonLd"`
}

// Facets are the distinct categories and tags of live articles
type Facets struct {
	Categories []string `json:"categories"`
	Tags       []string `json:"tags"`
}

// Warning flags an article missing editorial fields
type Warning struct {
	ID      string   `json:"id"`
	Slug    string   `json:"slug"`
	Title   string   `json:"title"`
	Missing []string `json:"missing"`
}

// Service serves the public insight listings and the admin editor
type Service struct {
	store   Store
	siteURL string
	now     func() time.Time
}

// NewService creates an insights service
func NewService(store Store, siteURL string) *Service {
	return &Service{
		store:   store,
		siteURL: strings.TrimSuffix(siteURL, "/"),
		now:     time.Now,
	}
}

// --- Public ---

// List returns live articles matching filter, newest first, without bodies
func (s *Service) List(ctx context.Context, filter models.ArticleFilter) ([]*models.ArticleMeta, error) {
	live, err := s.live(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*models.ArticleMeta, 0, len(live))
	for _, a := range live {
		if matches(a, filter) {
			out = append(out, a.Meta())
		}
	}
	return out, nil
}

// Get returns a live article by slug with its CTA and structured data
func (s *Service) Get(ctx context.Context, slug string) (*ArticleView, error) {
	a, err := s.store.GetArticleBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	if a == nil || !a.IsLive(s.now()) {
		return nil, ErrArticleNotFound
	}

	return &ArticleView{
		Article:   a,
		CTA:       CTAFor(a.CTAType),
		Canonical: Canonical(s.siteURL, a.Slug),
		JSONLD:    ArticleSchema(a, s.siteURL),
	}, nil
}

// Pinned returns the pinned live article, falling back to the newest one
func (s *Service) Pinned(ctx context.Context) (*models.ArticleMeta, error) {
	live, err := s.live(ctx)
	if err != nil {
		return nil, err
	}
	if len(live) == 0 {
		return nil, ErrArticleNotFound
	}

	for _, a := range live {
		if a.IsPinned {
			return a.Meta(), nil
		}
	}
	return live[0].Meta(), nil
}

// Featured returns live campaign-featured articles, newest first
func (s *Service) Featured(ctx context.Context) ([]*models.ArticleMeta, error) {
	live, err := s.live(ctx)
	if err != nil {
		return nil, err
	}

	out := []*models.ArticleMeta{}
	for _, a := range live {
		if a.IsCampaignFeatured {
			out = append(out, a.Meta())
		}
	}
	return out, nil
}

// Facets returns sorted distinct categories and tags of live articles
func (s *Service) Facets(ctx context.Context) (*Facets, error) {
	live, err := s.live(ctx)
	if err != nil {
		return nil, err
	}

	categories := []string{}
	tags := []string{}
	for _, a := range live {
		if a.Category != "" {
			categories = append(categories, a.Category)
		}
		tags = append(tags, a.Tags...)
	}
	slices.Sort(categories)
	slices.Sort(tags)

	return &Facets{
		Categories: slices.Compact(categories),
		Tags:       slices.Compact(tags),
	}, nil
}

func (s *Service) live(ctx context.Context) ([]*models.Article, error) {
	all, err := s.store.ListArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}

	now := s.now()
	live := all[:0]
	for _, a := range all {
		if a.IsLive(now) {
			live = append(live, a)
		}
	}
	sortArticles(live, models.ArticleSort{Key: "publishDate"})
	return live, nil
}

func matches(a *models.Article, f models.ArticleFilter) bool {
	if f.Category != "" && a.Category != f.Category {
		return false
	}

	if len(f.Tags) > 0 && !slices.ContainsFunc(f.Tags, func(t string) bool {
		return slices.Contains(a.Tags, t)
	}) {
		return false
	}

	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		haystack := []string{a.Title, a.Thesis, a.Category}
		haystack = append(haystack, a.Tags...)
		return slices.ContainsFunc(haystack, func(field string) bool {
			return strings.Contains(strings.ToLower(field), q)
		})
	}

	return true
}

// --- Admin ---

// ParseSort builds an admin sort from query values. Without a direction,
// publishDate sorts newest first and other keys ascending.
func ParseSort(key, dir string) (models.ArticleSort, error) {
	if key == "" {
		key = "publishDate"
	}
	switch key {
	case "title", "status", "category", "publishDate":
	default:
		return models.ArticleSort{}, fmt.Errorf("%w: unknown sort key %q", ErrInvalidArticle, key)
	}

	switch strings.ToLower(dir) {
	case "":
		return models.ArticleSort{Key: key, Asc: key != "publishDate"}, nil
	case "asc":
		return models.ArticleSort{Key: key, Asc: true}, nil
	case "desc":
		return models.ArticleSort{Key: key}, nil
	}
	return models.ArticleSort{}, fmt.Errorf("%w: unknown sort direction %q", ErrInvalidArticle, dir)
}

// AdminList returns every article regardless of status
func (s *Service) AdminList(ctx context.Context, sort models.ArticleSort) ([]*models.Article, error) {
	all, err := s.store.ListArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	sortArticles(all, sort)
	return all, nil
}

func sortArticles(articles []*models.Article, sort models.ArticleSort) {
	slices.SortStableFunc(articles, func(a, b *models.Article) int {
		var c int
		switch sort.Key {
		case "title":
			c = cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		case "status":
			c = cmp.Compare(a.Status, b.Status)
		case "category":
			c = cmp.Compare(strings.ToLower(a.Category), strings.ToLower(b.Category))
		default:
			c = a.PublishDate.Compare(b.PublishDate)
		}
		if !sort.Asc {
			c = -c
		}
		return c
	})
}

// AdminGet returns an article by id in any status
func (s *Service) AdminGet(ctx context.Context, id string) (*models.Article, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrArticleNotFound
	}

	a, err := s.store.GetArticle(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	if a == nil {
		return nil, ErrArticleNotFound
	}
	return a, nil
}

// Create validates and stores a new article
func (s *Service) Create(ctx context.Context, a *models.Article) (*models.Article, error) {
	s.prepare(a)
	if err := validate(a); err != nil {
		return nil, err
	}

	pinned := a.IsPinned
	a.ID = uuid.New().String()
	a.IsPinned = false

	if err := s.store.CreateArticle(ctx, a); err != nil {
		return nil, storeError(err, a.Slug)
	}

	if pinned {
		if err := s.store.SetPinned(ctx, a.ID, true); err != nil {
			return nil, fmt.Errorf("failed to pin article: %w", err)
		}
		a.IsPinned = true
	}

	slog.Info("article created", "id", a.ID, "slug", a.Slug, "status", a.Status)
	return a, nil
}

// Update replaces an article's content. A change to isPinned goes through
// the exclusive pin path.
func (s *Service) Update(ctx context.Context, id string, a *models.Article) (*models.Article, error) {
	existing, err := s.AdminGet(ctx, id)
	if err != nil {
		return nil, err
	}

	s.prepare(a)
	if err := validate(a); err != nil {
		return nil, err
	}

	pinned := a.IsPinned
	a.ID = existing.ID
	a.IsPinned = existing.IsPinned

	if err := s.store.UpdateArticle(ctx, a); err != nil {
		return nil, storeError(err, a.Slug)
	}

	if pinned != existing.IsPinned {
		if err := s.store.SetPinned(ctx, a.ID, pinned); err != nil {
			return nil, fmt.Errorf("failed to update pin: %w", err)
		}
		a.IsPinned = pinned
	}

	slog.Info("article updated", "id", a.ID, "slug", a.Slug, "status", a.Status)
	return a, nil
}

// Delete removes an article
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrArticleNotFound
	}
	if err := s.store.DeleteArticle(ctx, id); err != nil {
		return storeError(err, "")
	}

	slog.Info("article deleted", "id", id)
	return nil
}

// TogglePin pins the article, clearing every other pin, or unpins it if it
// was already pinned
func (s *Service) TogglePin(ctx context.Context, id string) (*models.Article, error) {
	a, err := s.AdminGet(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.store.SetPinned(ctx, id, !a.IsPinned); err != nil {
		return nil, storeError(err, "")
	}
	a.IsPinned = !a.IsPinned

	slog.Info("article pin toggled", "id", id, "pinned", a.IsPinned)
	return a, nil
}

// Export returns every article with bodies, newest first
func (s *Service) Export(ctx context.Context) ([]*models.Article, error) {
	return s.AdminList(ctx, models.ArticleSort{Key: "publishDate"})
}

// Warnings lists articles missing thesis, category, ctaType or summary
func (s *Service) Warnings(ctx context.Context) ([]Warning, error) {
	all, err := s.AdminList(ctx, models.ArticleSort{Key: "title", Asc: true})
	if err != nil {
		return nil, err
	}

	warnings := []Warning{}
	for _, a := range all {
		if missing := MissingFields(a); len(missing) > 0 {
			warnings = append(warnings, Warning{ID: a.ID, Slug: a.Slug, Title: a.Title, Missing: missing})
		}
	}
	return warnings, nil
}

func (s *Service) prepare(a *models.Article) {
	normalize(a)
	now := s.now().UTC()
	if a.PublishDate.IsZero() && a.Status != models.ArticleScheduled {
		a.PublishDate = now
	}
	a.UpdatedAt = now
}

func storeError(err error, slug string) error {
	switch {
	case errors.Is(err, storage.ErrDuplicate):
		return fmt.Errorf("%w: %s", ErrSlugTaken, slug)
	case errors.Is(err, storage.ErrNotFound):
		return ErrArticleNotFound
	}
	return fmt.Errorf("article store: %w", err)
}
