package insights

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onedigit/site-engine/internal/models"
	"github.com/onedigit/site-engine/internal/storage"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService() *Service {
	svc := NewService(storage.NewMemoryRepository(), "https://1digit.io/")
	svc.now = func() time.Time { return testNow }
	return svc
}

func article(slug string, status models.ArticleStatus, daysAgo int) *models.Article {
	return &models.Article{
		Slug:        slug,
		Title:       strings.ToUpper(slug[:1]) + slug[1:],
		Thesis:      "Thesis for " + slug,
		Summary:     "Summary for " + slug,
		Category:    "Data Strategy",
		Tags:        []string{"ai"},
		CTAType:     "ai-readiness",
		PublishDate: testNow.AddDate(0, 0, -daysAgo),
		Status:      status,
		BodyBlocks: []models.BodyBlock{
			{Type: models.BlockParagraph, Content: "Some words about " + slug},
		},
	}
}

func mustCreate(t *testing.T, svc *Service, a *models.Article) *models.Article {
	t.Helper()
	created, err := svc.Create(context.Background(), a)
	require.NoError(t, err)
	return created
}

func TestPublicListing(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	old := article("old", models.ArticlePublished, 30)
	old.Category = "Governance"
	old.Tags = []string{"security", "governance"}
	mustCreate(t, svc, old)

	recent := article("recent", models.ArticlePublished, 1)
	recent.Tags = []string{"lakehouse"}
	mustCreate(t, svc, recent)

	mustCreate(t, svc, article("draft", models.ArticleDraft, 0))
	mustCreate(t, svc, article("archived", models.ArticleArchived, 2))
	mustCreate(t, svc, article("due", models.ArticleScheduled, 5))
	mustCreate(t, svc, article("future", models.ArticleScheduled, -5))

	list, err := svc.List(ctx, models.ArticleFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"recent", "due", "old"}, slugs(list))

	list, err = svc.List(ctx, models.ArticleFilter{Category: "Governance"})
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, slugs(list))

	list, err = svc.List(ctx, models.ArticleFilter{Tags: []string{"lakehouse", "security"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"recent", "old"}, slugs(list))

	list, err = svc.List(ctx, models.ArticleFilter{Query: "GOVERN"})
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, slugs(list))

	list, err = svc.List(ctx, models.ArticleFilter{Query: "thesis for rec"})
	require.NoError(t, err)
	assert.Equal(t, []string{"recent"}, slugs(list))

	facets, err := svc.Facets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Data Strategy", "Governance"}, facets.Categories)
	assert.Equal(t, []string{"ai", "governance", "lakehouse", "security"}, facets.Tags)
}

func slugs(metas []*models.ArticleMeta) []string {
	out := make([]string, len(metas))
	for i, m := range metas {
		out[i] = m.Slug
	}
	return out
}

func TestGet(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	a := article("pillars", models.ArticlePublished, 3)
	a.CTAType = "security-review"
	a.OGImage = "/images/og/pillars.png"
	mustCreate(t, svc, a)
	mustCreate(t, svc, article("hidden", models.ArticleDraft, 0))

	view, err := svc.Get(ctx, "pillars")
	require.NoError(t, err)
	assert.Equal(t, "Strengthen Your Data Governance", view.CTA.Heading)
	assert.Equal(t, "https://1digit.io/insights/pillars", view.Canonical)
	assert.Equal(t, "Article", view.JSONLD["@type"])
	assert.Equal(t, "https://1digit.io/images/og/pillars.png", view.JSONLD["image"])
	assert.NotEmpty(t, view.Article.BodyBlocks)

	_, err = svc.Get(ctx, "hidden")
	assert.ErrorIs(t, err, ErrArticleNotFound)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrArticleNotFound)
}

func TestCTAFallback(t *testing.T) {
	assert.Equal(t, CTAFor("ai-readiness"), CTAFor("unknown"))
	assert.Equal(t, "Request a Review", CTAFor("architecture-review").PrimaryLabel)
}

func TestPinned(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Pinned(ctx)
	assert.ErrorIs(t, err, ErrArticleNotFound)

	first := mustCreate(t, svc, article("first", models.ArticlePublished, 10))
	mustCreate(t, svc, article("second", models.ArticlePublished, 1))

	pinned, err := svc.Pinned(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", pinned.Slug)

	_, err = svc.TogglePin(ctx, first.ID)
	require.NoError(t, err)

	pinned, err = svc.Pinned(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", pinned.Slug)
}

func TestTogglePinExclusive(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	a := mustCreate(t, svc, article("a", models.ArticlePublished, 1))
	b := mustCreate(t, svc, article("b", models.ArticlePublished, 2))

	got, err := svc.TogglePin(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPinned)

	got, err = svc.TogglePin(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPinned)

	a, err = svc.AdminGet(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, a.IsPinned)

	got, err = svc.TogglePin(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPinned)

	_, err = svc.TogglePin(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrArticleNotFound)
}

func TestFeatured(t *testing.T) {
	svc := newTestService()

	f := article("campaign", models.ArticlePublished, 1)
	f.IsCampaignFeatured = true
	mustCreate(t, svc, f)
	mustCreate(t, svc, article("plain", models.ArticlePublished, 1))

	list, err := svc.Featured(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"campaign"}, slugs(list))
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created := mustCreate(t, svc, &models.Article{Title: "Why Lakehouses Win!", Status: models.ArticleDraft})
	assert.Equal(t, "why-lakehouses-win", created.Slug)
	assert.Equal(t, 1, created.ReadTimeMinutes)
	assert.Equal(t, testNow, created.PublishDate)
	assert.NotEmpty(t, created.ID)

	_, err := svc.Create(ctx, &models.Article{Title: "Why Lakehouses Win"})
	assert.ErrorIs(t, err, ErrSlugTaken)

	tests := []struct {
		name string
		a    *models.Article
	}{
		{"missing title", &models.Article{Slug: "x"}},
		{"bad slug", &models.Article{Title: "T", Slug: "Bad Slug"}},
		{"bad status", &models.Article{Title: "T", Status: "live"}},
		{"bad cta", &models.Article{Title: "T", CTAType: "buy-now"}},
		{"unknown block", &models.Article{Title: "T", BodyBlocks: []models.BodyBlock{{Type: "video"}}}},
		{"publish without thesis", &models.Article{Title: "T", Status: models.ArticlePublished}},
		{"scheduled without date", &models.Article{Title: "T", Status: models.ArticleScheduled}},
		{"external without url", &models.Article{Title: "T", External: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.a)
			assert.ErrorIs(t, err, ErrInvalidArticle)
		})
	}
}

func TestUpdate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	a := mustCreate(t, svc, article("a", models.ArticlePublished, 1))
	b := mustCreate(t, svc, article("b", models.ArticlePublished, 2))
	_, err := svc.TogglePin(ctx, a.ID)
	require.NoError(t, err)

	edit := article("b-renamed", models.ArticlePublished, 2)
	edit.IsPinned = true
	updated, err := svc.Update(ctx, b.ID, edit)
	require.NoError(t, err)
	assert.Equal(t, b.ID, updated.ID)
	assert.Equal(t, "b-renamed", updated.Slug)
	assert.True(t, updated.IsPinned)

	a, err = svc.AdminGet(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, a.IsPinned)

	_, err = svc.Update(ctx, a.ID, article("b-renamed", models.ArticlePublished, 1))
	assert.ErrorIs(t, err, ErrSlugTaken)

	_, err = svc.Update(ctx, "5f1c1a0e-0000-4000-8000-000000000000", article("c", models.ArticleDraft, 0))
	assert.ErrorIs(t, err, ErrArticleNotFound)
}

func TestDelete(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	a := mustCreate(t, svc, article("a", models.ArticleDraft, 1))
	require.NoError(t, svc.Delete(ctx, a.ID))
	assert.ErrorIs(t, svc.Delete(ctx, a.ID), ErrArticleNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "nope"), ErrArticleNotFound)
}

func TestAdminListSort(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	mustCreate(t, svc, article("bravo", models.ArticlePublished, 3))
	mustCreate(t, svc, article("alpha", models.ArticleDraft, 1))
	mustCreate(t, svc, article("charlie", models.ArticleArchived, 2))

	tests := []struct {
		key, dir string
		want     []string
	}{
		{"", "", []string{"alpha", "charlie", "bravo"}},
		{"publishDate", "asc", []string{"bravo", "charlie", "alpha"}},
		{"title", "", []string{"alpha", "bravo", "charlie"}},
		{"title", "desc", []string{"charlie", "bravo", "alpha"}},
		{"status", "asc", []string{"charlie", "alpha", "bravo"}},
	}
	for _, tt := range tests {
		sort, err := ParseSort(tt.key, tt.dir)
		require.NoError(t, err)

		list, err := svc.AdminList(ctx, sort)
		require.NoError(t, err)

		got := make([]string, len(list))
		for i, a := range list {
			got[i] = a.Slug
		}
		assert.Equal(t, tt.want, got, "sort %s %s", tt.key, tt.dir)
	}

	_, err := ParseSort("author", "")
	assert.ErrorIs(t, err, ErrInvalidArticle)
	_, err = ParseSort("title", "sideways")
	assert.ErrorIs(t, err, ErrInvalidArticle)
}

func TestWarningsAndExport(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	mustCreate(t, svc, article("complete", models.ArticlePublished, 1))
	mustCreate(t, svc, &models.Article{Title: "Draft idea", Status: models.ArticleDraft, CTAType: "ai-readiness"})

	warnings, err := svc.Warnings(ctx)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, "draft-idea", warnings[0].Slug)
	assert.Equal(t, []string{"thesis", "category", "summary"}, warnings[0].Missing)

	exported, err := svc.Export(ctx)
	require.NoError(t, err)
	assert.Len(t, exported, 2)
}

func TestSeed(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	data := `[
		{"id": "seed-1", "slug": "one", "title": "One", "thesis": "t", "summary": "s", "category": "c",
		 "ctaType": "platform-discussion", "status": "published", "publishDate": "2026-01-10T00:00:00Z",
		 "isPinned": true, "bodyBlocks": [{"type": "bulletList", "items": ["a", "b"]}]},
		{"slug": "two", "title": "Two", "status": "draft", "publishDate": "2026-01-12T00:00:00Z"}
	]`

	n, err := svc.Seed(ctx, strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	pinned, err := svc.Pinned(ctx)
	require.NoError(t, err)
	assert.Equal(t, "one", pinned.Slug)
	assert.NotEqual(t, "seed-1", pinned.ID)

	n, err = svc.Seed(ctx, strings.NewReader(data))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSlugifyAndReadTime(t *testing.T) {
	assert.Equal(t, "ai-in-2026-a-primer", Slugify("  AI in 2026: A Primer! "))

	words := strings.Repeat("word ", 401)
	assert.Equal(t, 3, ReadTime([]models.BodyBlock{{Type: models.BlockParagraph, Content: words}}))
	assert.Equal(t, 1, ReadTime(nil))
}

func TestSeedFileBundledArticles(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	n, err := svc.SeedFile(ctx, "../../content/insights/articles.json")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	list, err := svc.List(ctx, models.ArticleFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"five-pillars-of-ai-readiness", "lakehouse-cost-governance"}, slugs(list))

	warnings, err := svc.Warnings(ctx)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"summary"}, warnings[0].Missing)

	_, err = svc.SeedFile(ctx, "does-not-exist.json")
	assert.Error(t, err)
}
