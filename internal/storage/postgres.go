package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/onedigit/site-engine/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN         string
	MaxConns    int32
	MinConns    int32
	MaxLifetime time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	poolConfig.MaxConns = 25
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	poolConfig.MinConns = 2
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	poolConfig.MaxConnLifetime = 30 * time.Minute
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Pool exposes the underlying pool for migrations
func (r *PostgresRepository) Pool() *pgxpool.Pool {
	return r.pool
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// --- Leads ---

// CreateLead stores a captured lead
func (r *PostgresRepository) CreateLead(ctx context.Context, lead *models.Lead) error {
	answersJSON, err := marshalNullable(lead.Answers, lead.Answers == nil)
	if err != nil {
		return fmt.Errorf("failed to marshal answers: %w", err)
	}
	resultJSON, err := marshalNullable(lead.Result, lead.Result == nil)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	query := `
		INSERT INTO leads (id, kind, name, email, company, role, message, answers, result, consent, remote_addr, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = r.pool.Exec(ctx, query,
		lead.ID,
		string(lead.Kind),
		lead.Respondent.Name,
		lead.Respondent.Email,
		lead.Respondent.Company,
		lead.Respondent.Role,
		lead.Message,
		answersJSON,
		resultJSON,
		lead.Consent,
		lead.RemoteAddr,
		lead.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create lead: %w", err)
	}
	return nil
}

// ListLeads returns leads newest-first
func (r *PostgresRepository) ListLeads(ctx context.Context, filters models.LeadFilters) ([]*models.Lead, error) {
	query := `
		SELECT id, kind, name, email, company, role, message, answers, result, consent, remote_addr, created_at
		FROM leads
		WHERE 1=1
	`
	args := make([]interface{}, 0)
	argNum := 1

	if filters.Kind != "" {
		query += fmt.Sprintf(" AND kind = $%d", argNum)
		args = append(args, string(filters.Kind))
		argNum++
	}

	query += " ORDER BY created_at DESC"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filters.Limit)
		argNum++
	}

	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, filters.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	leads := []*models.Lead{}
	for rows.Next() {
		var lead models.Lead
		var kind string
		var answersJSON, resultJSON []byte

		err := rows.Scan(
			&lead.ID,
			&kind,
			&lead.Respondent.Name,
			&lead.Respondent.Email,
			&lead.Respondent.Company,
			&lead.Respondent.Role,
			&lead.Message,
			&answersJSON,
			&resultJSON,
			&lead.Consent,
			&lead.RemoteAddr,
			&lead.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		lead.Kind = models.LeadKind(kind)

		if answersJSON != nil {
			if err := json.Unmarshal(answersJSON, &lead.Answers); err != nil {
				return nil, fmt.Errorf("failed to unmarshal answers: %w", err)
			}
		}
		if resultJSON != nil {
			lead.Result = &models.AssessmentResult{}
			if err := json.Unmarshal(resultJSON, lead.Result); err != nil {
				return nil, fmt.Errorf("failed to unmarshal result: %w", err)
			}
		}

		leads = append(leads, &lead)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leads: %w", err)
	}
	return leads, nil
}

// DeleteLeadsBefore removes leads created before cutoff
func (r *PostgresRepository) DeleteLeadsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete leads: %w", err)
	}
	return result.RowsAffected(), nil
}

// --- Articles ---

const articleColumns = `id, slug, title, thesis, summary, research_type, category, tags, campaign_tag,
	publish_date, read_time_minutes, cta_type, is_pinned, is_campaign_featured, primary_conversion_target,
	external, external_url, seo_title, seo_description, og_image, cover_image, body_blocks, status, updated_at`

// CreateArticle inserts a new article
func (r *PostgresRepository) CreateArticle(ctx context.Context, a *models.Article) error {
	tagsJSON, blocksJSON, err := marshalArticleJSON(a)
	if err != nil {
		return err
	}

	query := `INSERT INTO articles (` + articleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`

	_, err = r.pool.Exec(ctx, query,
		a.ID, a.Slug, a.Title, a.Thesis, a.Summary, a.ResearchType, a.Category, tagsJSON, a.CampaignTag,
		a.PublishDate, a.ReadTimeMinutes, a.CTAType, a.IsPinned, a.IsCampaignFeatured, a.PrimaryConversionTarget,
		a.External, a.ExternalURL, a.SEOTitle, a.SEODescription, a.OGImage, a.CoverImage, blocksJSON, string(a.Status), a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("slug %q: %w", a.Slug, ErrDuplicate)
		}
		return fmt.Errorf("failed to create article: %w", err)
	}
	return nil
}

// GetArticle retrieves an article by ID
func (r *PostgresRepository) GetArticle(ctx context.Context, id string) (*models.Article, error) {
	return r.getArticleWhere(ctx, "id = $1", id)
}

// GetArticleBySlug retrieves an article by slug
func (r *PostgresRepository) GetArticleBySlug(ctx context.Context, slug string) (*models.Article, error) {
	return r.getArticleWhere(ctx, "slug = $1", slug)
}

func (r *PostgresRepository) getArticleWhere(ctx context.Context, where string, arg string) (*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE ` + where

	a, err := scanArticle(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return a, nil
}

// UpdateArticle replaces an existing article
func (r *PostgresRepository) UpdateArticle(ctx context.Context, a *models.Article) error {
	tagsJSON, blocksJSON, err := marshalArticleJSON(a)
	if err != nil {
		return err
	}

	query := `
		UPDATE articles
		SET slug = $2, title = $3, thesis = $4, summary = $5, research_type = $6, category = $7, tags = $8,
		    campaign_tag = $9, publish_date = $10, read_time_minutes = $11, cta_type = $12, is_pinned = $13,
		    is_campaign_featured = $14, primary_conversion_target = $15, external = $16, external_url = $17,
		    seo_title = $18, seo_description = $19, og_image = $20, cover_image = $21, body_blocks = $22,
		    status = $23, updated_at = $24
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		a.ID, a.Slug, a.Title, a.Thesis, a.Summary, a.ResearchType, a.Category, tagsJSON,
		a.CampaignTag, a.PublishDate, a.ReadTimeMinutes, a.CTAType, a.IsPinned,
		a.IsCampaignFeatured, a.PrimaryConversionTarget, a.External, a.ExternalURL,
		a.SEOTitle, a.SEODescription, a.OGImage, a.CoverImage, blocksJSON,
		string(a.Status), a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("slug %q: %w", a.Slug, ErrDuplicate)
		}
		return fmt.Errorf("failed to update article: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("article %s: %w", a.ID, ErrNotFound)
	}
	return nil
}

// DeleteArticle deletes an article by ID
func (r *PostgresRepository) DeleteArticle(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("article %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListArticles returns every article, newest publish date first
func (r *PostgresRepository) ListArticles(ctx context.Context) ([]*models.Article, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+articleColumns+` FROM articles ORDER BY publish_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	articles := []*models.Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating articles: %w", err)
	}
	return articles, nil
}

// SetPinned pins or unpins an article; pinning is exclusive
func (r *PostgresRepository) SetPinned(ctx context.Context, id string, pinned bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if pinned {
		if _, err := tx.Exec(ctx, `UPDATE articles SET is_pinned = FALSE WHERE is_pinned AND id <> $1`, id); err != nil {
			return fmt.Errorf("failed to clear pins: %w", err)
		}
	}

	result, err := tx.Exec(ctx, `UPDATE articles SET is_pinned = $2, updated_at = NOW() WHERE id = $1`, id, pinned)
	if err != nil {
		return fmt.Errorf("failed to pin article: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("article %s: %w", id, ErrNotFound)
	}

	return tx.Commit(ctx)
}

// CountArticles returns the number of stored articles
func (r *PostgresRepository) CountArticles(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM articles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return n, nil
}

// --- API Clients ---

// GetClientByApiKey retrieves an API client by its key
func (r *PostgresRepository) GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error) {
	query := `
		SELECT id, name, api_key, is_active, permissions, created_at, last_used_at
		FROM api_clients
		WHERE api_key = $1
	`

	var client models.ApiClient
	var permissionsJSON []byte

	err := r.pool.QueryRow(ctx, query, apiKey).Scan(
		&client.ID,
		&client.Name,
		&client.ApiKey,
		&client.IsActive,
		&permissionsJSON,
		&client.CreatedAt,
		&client.LastUsedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get api client: %w", err)
	}

	if err := json.Unmarshal(permissionsJSON, &client.Permissions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal permissions: %w", err)
	}
	return &client, nil
}

// UpdateClientLastUsed records the time an API key was last used
func (r *PostgresRepository) UpdateClientLastUsed(ctx context.Context, apiKey string) error {
	_, err := r.pool.Exec(ctx, `UPDATE api_clients SET last_used_at = NOW() WHERE api_key = $1`, apiKey)
	if err != nil {
		return fmt.Errorf("failed to update last_used_at: %w", err)
	}
	return nil
}

// --- Helpers ---

func scanArticle(row pgx.Row) (*models.Article, error) {
	var a models.Article
	var status string
	var tagsJSON, blocksJSON []byte

	err := row.Scan(
		&a.ID, &a.Slug, &a.Title, &a.Thesis, &a.Summary, &a.ResearchType, &a.Category, &tagsJSON, &a.CampaignTag,
		&a.PublishDate, &a.ReadTimeMinutes, &a.CTAType, &a.IsPinned, &a.IsCampaignFeatured, &a.PrimaryConversionTarget,
		&a.External, &a.ExternalURL, &a.SEOTitle, &a.SEODescription, &a.OGImage, &a.CoverImage, &blocksJSON, &status, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Status = models.ArticleStatus(status)

	if err := json.Unmarshal(tagsJSON, &a.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	if err := json.Unmarshal(blocksJSON, &a.BodyBlocks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal body blocks: %w", err)
	}
	return &a, nil
}

func marshalArticleJSON(a *models.Article) (tags, blocks []byte, err error) {
	t := a.Tags
	if t == nil {
		t = []string{}
	}
	if tags, err = json.Marshal(t); err != nil {
		return nil, nil, fmt.Errorf("failed to marshal tags: %w", err)
	}

	b := a.BodyBlocks
	if b == nil {
		b = []models.BodyBlock{}
	}
	if blocks, err = json.Marshal(b); err != nil {
		return nil, nil, fmt.Errorf("failed to marshal body blocks: %w", err)
	}
	return tags, blocks, nil
}

func marshalNullable(v interface{}, isNil bool) ([]byte, error) {
	if isNil {
		return nil, nil
	}
	return json.Marshal(v)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
