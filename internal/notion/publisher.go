package notion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nhle/newsdigest/internal/model"
)

const titleLogRunes = 40

// untitled replaces an empty title before deduplication.
const untitled = "Sin título"

// pagesAPI is the subset of Client used by Publisher.
type pagesAPI interface {
	QueryDatabase(ctx context.Context, databaseID string, req QueryRequest) (*QueryResponse, error)
	CreatePage(ctx context.Context, req CreatePageRequest) (*Page, error)
	ArchivePage(ctx context.Context, pageID string) error
}

// Publisher writes summary records to a Notion database, skipping titles
// that already exist there. It is not safe for concurrent use.
type Publisher struct {
	api    pagesAPI
	cfg    model.NotionConfig
	log    logrus.FieldLogger
	now    func() time.Time
	titles map[string]struct{}
}

// NewPublisher creates a Publisher for cfg.
func NewPublisher(cfg model.NotionConfig, log logrus.FieldLogger) *Publisher {
	return newPublisher(NewClient(cfg), cfg, log)
}

func newPublisher(api pagesAPI, cfg model.NotionConfig, log logrus.FieldLogger) *Publisher {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	return &Publisher{
		api: api,
		cfg: cfg,
		log: log.WithField("component", "notion"),
		now: time.Now,
	}
}

// IsConfigured reports whether a token and database ID are set.
func (p *Publisher) IsConfigured() bool {
	return p.cfg.Configured()
}

// existingTitles loads the normalized titles of one page of rows on
// first use and caches them for the lifetime of the Publisher. A failed
// query is logged and leaves the cache empty.
func (p *Publisher) existingTitles(ctx context.Context) map[string]struct{} {
	if p.titles != nil {
		return p.titles
	}
	p.titles = make(map[string]struct{})

	resp, err := p.api.QueryDatabase(ctx, p.cfg.DatabaseID, QueryRequest{PageSize: p.cfg.PageSize})
	if err != nil {
		p.log.WithError(err).Warn("could not load existing titles; duplicates will not be detected")
		return p.titles
	}

	for _, page := range resp.Results {
		if key := model.NormalizeTitle(page.PlainTitle()); key != "" {
			p.titles[key] = struct{}{}
		}
	}
	p.log.WithField("count", len(p.titles)).Debug("loaded existing titles")
	return p.titles
}

// Publish creates one page per record whose normalized title is not yet
// in the database, in order. Titles created during the run count as
// existing for later records. The returned error is non-nil only when
// ctx is cancelled; stats then cover the records handled so far.
func (p *Publisher) Publish(
	ctx context.Context,
	records []model.SummaryRecord,
) (model.PublishStats, error) {
	stats := model.PublishStats{Errors: []string{}}
	titles := p.existingTitles(ctx)

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if strings.TrimSpace(rec.Title) == "" {
			rec.Title = untitled
		}

		log := p.log.WithFields(logrus.Fields{
			"n":     fmt.Sprintf("%d/%d", i+1, len(records)),
			"title": model.Truncate(rec.Title, titleLogRunes),
		})

		key := rec.TitleKey()
		if _, ok := titles[key]; ok {
			log.Info("skipping existing page")
			stats.Skipped++
			continue
		}

		log.Info("creating page")
		if _, err := p.api.CreatePage(ctx, p.pageRequest(rec)); err != nil {
			log.WithError(err).Error("could not create page")
			stats.Failed++
			stats.Errors = append(stats.Errors, err.Error())
			continue
		}

		stats.Success++
		titles[key] = struct{}{}
	}

	return stats, nil
}

// ClearDatabase archives every row and returns how many were archived.
// Rows are listed across all result pages before any is archived. A row
// that fails to archive is logged and not counted.
func (p *Publisher) ClearDatabase(ctx context.Context) (int, error) {
	var ids []string
	req := QueryRequest{PageSize: p.cfg.PageSize}
	for {
		resp, err := p.api.QueryDatabase(ctx, p.cfg.DatabaseID, req)
		if err != nil {
			return 0, fmt.Errorf("listing pages: %w", err)
		}
		for _, page := range resp.Results {
			if !page.Archived {
				ids = append(ids, page.ID)
			}
		}
		if !resp.HasMore || resp.NextCursor == nil || *resp.NextCursor == "" {
			break
		}
		req.StartCursor = *resp.NextCursor
	}

	p.titles = nil

	archived := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return archived, err
		}
		if err := p.api.ArchivePage(ctx, id); err != nil {
			p.log.WithField("page", id).WithError(err).Warn("could not archive page")
			continue
		}
		archived++
	}

	p.log.WithField("archived", archived).Info("cleared database")
	return archived, nil
}

// pageRequest maps a record to the database columns.
func (p *Publisher) pageRequest(rec model.SummaryRecord) CreatePageRequest {
	date := rec.Date.String()
	if date == "" {
		date = model.NewDate(p.now()).String()
	}
	category := rec.Category
	if !category.Valid() {
		category = model.CategoryNews
	}

	props := map[string]PropertyValue{
		PropTitle:    {Title: textValue(rec.Title)},
		PropSource:   {RichText: textValue(rec.Source)},
		PropDate:     {Date: &DateValue{Start: date}},
		PropCategory: {Select: &SelectOption{Name: string(category)}},
		PropSummary:  {RichText: textValue(model.Truncate(rec.Summary, model.MaxSummaryRunes))},
		PropTags:     {MultiSelect: tagOptions(rec.Tags)},
	}

	if rec.Tool != nil && *rec.Tool != "" {
		props[PropTool] = PropertyValue{RichText: textValue(*rec.Tool)}
	}
	if rec.Link != "" {
		link := rec.Link
		props[PropLink] = PropertyValue{URL: &link}
	}

	return CreatePageRequest{
		Parent:     Parent{DatabaseID: p.cfg.DatabaseID},
		Properties: props,
	}
}

func textValue(s string) []RichText {
	return []RichText{{Text: &TextContent{Content: model.Truncate(s, maxTextRunes)}}}
}

func tagOptions(tags []string) []SelectOption {
	opts := make([]SelectOption, 0, min(len(tags), maxPageTags))
	for _, t := range tags {
		if len(opts) == maxPageTags {
			break
		}
		// Select option names may not contain commas.
		name := strings.TrimSpace(strings.ReplaceAll(t, ",", " "))
		if name == "" {
			continue
		}
		opts = append(opts, SelectOption{Name: name})
	}
	return opts
}
