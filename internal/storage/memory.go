package storage

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/onedigit/site-engine/internal/models"
)

// MemoryRepository implements Repository in process memory. It backs local
// development when no database is configured, and tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	leads    []*models.Lead
	articles map[string]*models.Article
	clients  map[string]*models.ApiClient
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		articles: make(map[string]*models.Article),
		clients:  make(map[string]*models.ApiClient),
	}
}

// AddClient registers an API client
func (r *MemoryRepository) AddClient(client *models.ApiClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *client
	c.Permissions = slices.Clone(client.Permissions)
	r.clients[client.ApiKey] = &c
}

// Ping always succeeds
func (r *MemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op
func (r *MemoryRepository) Close() error {
	return nil
}

// --- Leads ---

func (r *MemoryRepository) CreateLead(ctx context.Context, lead *models.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := *lead
	r.leads = append(r.leads, &l)
	return nil
}

func (r *MemoryRepository) ListLeads(ctx context.Context, filters models.LeadFilters) ([]*models.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := []*models.Lead{}
	for _, l := range r.leads {
		if filters.Kind != "" && l.Kind != filters.Kind {
			continue
		}
		c := *l
		matched = append(matched, &c)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if filters.Offset > 0 {
		if filters.Offset >= len(matched) {
			return []*models.Lead{}, nil
		}
		matched = matched[filters.Offset:]
	}
	if filters.Limit > 0 && len(matched) > filters.Limit {
		matched = matched[:filters.Limit]
	}
	return matched, nil
}

func (r *MemoryRepository) DeleteLeadsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.leads[:0]
	var deleted int64
	for _, l := range r.leads {
		if l.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, l)
	}
	r.leads = kept
	return deleted, nil
}

// --- Articles ---

func (r *MemoryRepository) CreateArticle(ctx context.Context, a *models.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.articles[a.ID]; exists {
		return fmt.Errorf("article %s: %w", a.ID, ErrDuplicate)
	}
	if r.slugTaken(a.Slug, a.ID) {
		return fmt.Errorf("slug %q: %w", a.Slug, ErrDuplicate)
	}
	r.articles[a.ID] = cloneArticle(a)
	return nil
}

func (r *MemoryRepository) GetArticle(ctx context.Context, id string) (*models.Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.articles[id]
	if !ok {
		return nil, nil
	}
	return cloneArticle(a), nil
}

func (r *MemoryRepository) GetArticleBySlug(ctx context.Context, slug string) (*models.Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.articles {
		if a.Slug == slug {
			return cloneArticle(a), nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) UpdateArticle(ctx context.Context, a *models.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.articles[a.ID]; !ok {
		return fmt.Errorf("article %s: %w", a.ID, ErrNotFound)
	}
	if r.slugTaken(a.Slug, a.ID) {
		return fmt.Errorf("slug %q: %w", a.Slug, ErrDuplicate)
	}
	r.articles[a.ID] = cloneArticle(a)
	return nil
}

func (r *MemoryRepository) DeleteArticle(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.articles[id]; !ok {
		return fmt.Errorf("article %s: %w", id, ErrNotFound)
	}
	delete(r.articles, id)
	return nil
}

func (r *MemoryRepository) ListArticles(ctx context.Context) ([]*models.Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Article, 0, len(r.articles))
	for _, a := range r.articles {
		result = append(result, cloneArticle(a))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].PublishDate.Equal(result[j].PublishDate) {
			return result[i].Slug < result[j].Slug
		}
		return result[i].PublishDate.After(result[j].PublishDate)
	})
	return result, nil
}

func (r *MemoryRepository) SetPinned(ctx context.Context, id string, pinned bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, ok := r.articles[id]
	if !ok {
		return fmt.Errorf("article %s: %w", id, ErrNotFound)
	}
	if pinned {
		for _, a := range r.articles {
			a.IsPinned = false
		}
	}
	target.IsPinned = pinned
	target.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryRepository) CountArticles(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.articles), nil
}

// --- API Clients ---

func (r *MemoryRepository) GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[apiKey]
	if !ok {
		return nil, nil
	}
	cp := *c
	cp.Permissions = slices.Clone(c.Permissions)
	return &cp, nil
}

func (r *MemoryRepository) UpdateClientLastUsed(ctx context.Context, apiKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.clients[apiKey]; ok {
		now := time.Now().UTC()
		c.LastUsedAt = &now
	}
	return nil
}

// slugTaken must be called with the lock held
func (r *MemoryRepository) slugTaken(slug, exceptID string) bool {
	for id, a := range r.articles {
		if id != exceptID && a.Slug == slug {
			return true
		}
	}
	return false
}

func cloneArticle(a *models.Article) *models.Article {
	c := *a
	c.Tags = slices.Clone(a.Tags)
	c.BodyBlocks = slices.Clone(a.BodyBlocks)
	return &c
}
