package notion

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/newsdigest/internal/logging"
	"github.com/nhle/newsdigest/internal/model"
	"github.com/nhle/newsdigest/internal/testutil"
)

func newTestPublisher(cfg model.NotionConfig) *Publisher {
	return NewPublisher(cfg, logging.Discard())
}

func TestPublishSkipsExistingTitle(t *testing.T) {
	fake, cfg := newFakeNotion(t, "AI Weekly #12")
	p := newTestPublisher(cfg)

	stats, err := p.Publish(context.Background(), []model.SummaryRecord{testutil.Record("ai weekly #12")})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 0, stats.Success)
	assert.Empty(t, fake.created)
}

func TestPublishDedupWithinRun(t *testing.T) {
	for name, titles := range map[string][]string{
		"same title":     {"Foo Bar", "Foo Bar"},
		"case and space": {"Foo Bar", " foo bar "},
		"reversed":       {" foo bar ", "Foo Bar"},
	} {
		t.Run(name, func(t *testing.T) {
			fake, cfg := newFakeNotion(t)
			p := newTestPublisher(cfg)

			stats, err := p.Publish(context.Background(), []model.SummaryRecord{
				testutil.Record(titles[0]),
				testutil.Record(titles[1]),
			})
			require.NoError(t, err)
			assert.Equal(t, 1, stats.Success)
			assert.Equal(t, 1, stats.Skipped)
			assert.Equal(t, 0, stats.Failed)
			assert.Len(t, fake.created, 1)
		})
	}
}

func TestPublishLoadsTitlesOnce(t *testing.T) {
	fake, cfg := newFakeNotion(t, "Old")
	p := newTestPublisher(cfg)

	_, err := p.Publish(context.Background(), []model.SummaryRecord{testutil.Record("A")})
	require.NoError(t, err)
	stats, err := p.Publish(context.Background(), []model.SummaryRecord{testutil.Record("a"), testutil.Record("old")})
	require.NoError(t, err)

	assert.Len(t, fake.queries, 1)
	assert.Equal(t, 100, fake.queries[0].PageSize)
	assert.Equal(t, 2, stats.Skipped)
}

func TestPublishDefaultsEmptyTitle(t *testing.T) {
	fake, cfg := newFakeNotion(t)
	p := newTestPublisher(cfg)

	stats, err := p.Publish(context.Background(), []model.SummaryRecord{
		testutil.Record(""),
		testutil.Record("   "),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Success)
	assert.Equal(t, 1, stats.Skipped)
	require.Len(t, fake.created, 1)
	assert.Equal(t, "Sin título", fake.created[0].Properties[PropTitle].Title[0].Text.Content)
}

func TestPublishEmptyTitleMatchesExistingUntitledPage(t *testing.T) {
	fake, cfg := newFakeNotion(t, "Sin título")
	p := newTestPublisher(cfg)

	stats, err := p.Publish(context.Background(), []model.SummaryRecord{testutil.Record("")})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	assert.Empty(t, fake.created)
}

func TestPublishMapsProperties(t *testing.T) {
	fake, cfg := newFakeNotion(t)
	p := newTestPublisher(cfg)

	rec := testutil.Record("Polars 1.0")
	rec.Summary = strings.Repeat("x", 2500)
	rec.Tags = []string{"herramienta", "data-engineering"}

	stats, err := p.Publish(context.Background(), []model.SummaryRecord{rec})
	require.NoError(t, err)
	require.Equal(t, 1, stats.Success)
	require.Len(t, fake.created, 1)

	req := fake.created[0]
	assert.Equal(t, "db123", req.Parent.DatabaseID)
	props := req.Properties
	assert.Equal(t, "Polars 1.0", props[PropTitle].Title[0].Text.Content)
	assert.Equal(t, "Go Weekly", props[PropSource].RichText[0].Text.Content)
	assert.Equal(t, "2026-10-12", props[PropDate].Date.Start)
	assert.Equal(t, "Herramienta", props[PropCategory].Select.Name)
	assert.Len(t, props[PropSummary].RichText[0].Text.Content, 2000)
	assert.Equal(t, []SelectOption{{Name: "herramienta"}, {Name: "data-engineering"}}, props[PropTags].MultiSelect)
	assert.Equal(t, "Go", props[PropTool].RichText[0].Text.Content)
	require.NotNil(t, props[PropLink].URL)
	assert.Equal(t, "https://mail.example.com/Polars 1.0", *props[PropLink].URL)
}

func TestPageRequestOptionalFields(t *testing.T) {
	p := newPublisher(nil, model.NotionConfig{DatabaseID: "db"}, logging.Discard())
	p.now = func() time.Time { return time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC) }

	req := p.pageRequest(model.SummaryRecord{
		Title:    "No extras",
		Category: "Opinión",
		Tags:     []string{"a", "b,c", "d", "e", "f", "g"},
	})

	_, hasTool := req.Properties[PropTool]
	_, hasLink := req.Properties[PropLink]
	assert.False(t, hasTool)
	assert.False(t, hasLink)
	assert.Equal(t, "2026-10-16", req.Properties[PropDate].Date.Start)
	assert.Equal(t, "Noticia", req.Properties[PropCategory].Select.Name)
	assert.Len(t, req.Properties[PropTags].MultiSelect, 5)
	assert.Equal(t, "b c", req.Properties[PropTags].MultiSelect[1].Name)
}

func TestPublishRecordsFailures(t *testing.T) {
	fake, cfg := newFakeNotion(t)
	fake.failCreates["Broken"] = true
	p := newTestPublisher(cfg)

	stats, err := p.Publish(context.Background(), []model.SummaryRecord{
		testutil.Record("Broken"),
		testutil.Record("Fine"),
		testutil.Record("Broken"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Success)
	assert.Equal(t, 2, stats.Failed)
	require.Len(t, stats.Errors, 2)
	assert.Contains(t, stats.Errors[0], "validation_error")
	assert.Equal(t, 3, stats.Total())
}

func TestPublishBadTokenStillCountsFailures(t *testing.T) {
	_, cfg := newFakeNotion(t)
	cfg.Token = "wrong"
	p := newTestPublisher(cfg)

	stats, err := p.Publish(context.Background(), []model.SummaryRecord{testutil.Record("A")})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	assert.Contains(t, stats.Errors[0], "invalid token")
}

func TestClearDatabaseFollowsPagination(t *testing.T) {
	fake, cfg := newFakeNotion(t, "one", "two", "three", "four", "five")
	cfg.PageSize = 2
	p := newTestPublisher(cfg)

	// Prime the cache so the clear must invalidate it.
	stats, err := p.Publish(context.Background(), []model.SummaryRecord{testutil.Record("one")})
	require.NoError(t, err)
	require.Equal(t, 1, stats.Skipped)

	n, err := p.ClearDatabase(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Len(t, fake.archived, 5)
	assert.Empty(t, fake.live())

	stats, err = p.Publish(context.Background(), []model.SummaryRecord{testutil.Record("one")})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Success)
}

func TestIsConfigured(t *testing.T) {
	assert.False(t, newTestPublisher(model.NotionConfig{Token: "x"}).IsConfigured())
	assert.False(t, newTestPublisher(model.NotionConfig{DatabaseID: "x"}).IsConfigured())
	assert.True(t, newTestPublisher(model.NotionConfig{Token: "x", DatabaseID: "y"}).IsConfigured())
}

func TestSetupInstructions(t *testing.T) {
	text := SetupInstructions()
	for _, col := range []string{PropTitle, PropSource, PropDate, PropCategory, PropSummary, PropTags, PropTool, PropLink} {
		assert.Contains(t, text, col)
	}
	assert.Contains(t, text, "https://www.notion.so/my-integrations")
}
