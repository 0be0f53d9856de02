package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/onedigit/site-engine/internal/models"
)

// SeedFile imports articles from a JSON array file when the store is empty
func (s *Service) SeedFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	return s.Seed(ctx, f)
}

// Seed imports a JSON array of articles when the store is empty. Ids that
// are not UUIDs are replaced.
func (s *Service) Seed(ctx context.Context, r io.Reader) (int, error) {
	count, err := s.store.CountArticles(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	if count > 0 {
		slog.Debug("articles present, skipping seed", "count", count)
		return 0, nil
	}

	var articles []*models.Article
	if err := json.NewDecoder(r).Decode(&articles); err != nil {
		return 0, fmt.Errorf("failed to decode seed articles: %w", err)
	}

	var pinnedID string
	imported := 0
	for _, a := range articles {
		normalize(a)
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = s.now().UTC()
		}
		if err := validate(a); err != nil {
			return imported, fmt.Errorf("seed article %q: %w", a.Slug, err)
		}
		if _, err := uuid.Parse(a.ID); err != nil {
			a.ID = uuid.New().String()
		}

		if a.IsPinned {
			pinnedID = a.ID
			a.IsPinned = false
		}

		if err := s.store.CreateArticle(ctx, a); err != nil {
			return imported, storeError(err, a.Slug)
		}
		imported++
	}

	if pinnedID != "" {
		if err := s.store.SetPinned(ctx, pinnedID, true); err != nil {
			return imported, fmt.Errorf("failed to pin seed article: %w", err)
		}
	}

	slog.Info("insight articles seeded", "count", imported)
	return imported, nil
}
