package storage

import (
	"context"
	"errors"
	"time"

	"github.com/onedigit/site-engine/internal/models"
)

var (
	// ErrNotFound is returned when updating or deleting a missing record
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique field (article slug) is taken
	ErrDuplicate = errors.New("duplicate record")
)

// Repository defines persistence for leads, insight articles and API clients.
// Getters return (nil, nil) when the record does not exist.
type Repository interface {
	// Leads
	CreateLead(ctx context.Context, lead *models.Lead) error
	ListLeads(ctx context.Context, filters models.LeadFilters) ([]*models.Lead, error)
	DeleteLeadsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Articles
	CreateArticle(ctx context.Context, a *models.Article) error
	GetArticle(ctx context.Context, id string) (*models.Article, error)
	GetArticleBySlug(ctx context.Context, slug string) (*models.Article, error)
	UpdateArticle(ctx context.Context, a *models.Article) error
	DeleteArticle(ctx context.Context, id string) error
	ListArticles(ctx context.Context) ([]*models.Article, error)
	// SetPinned pins or unpins an article. Pinning clears every other pin.
	SetPinned(ctx context.Context, id string, pinned bool) error
	CountArticles(ctx context.Context) (int, error)

	// API Clients
	GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error)
	UpdateClientLastUsed(ctx context.Context, apiKey string) error

	// Health
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Repository = (*PostgresRepository)(nil)
	_ Repository = (*MemoryRepository)(nil)
)
