package ai

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nhle/newsdigest/internal/batch"
	"github.com/nhle/newsdigest/internal/model"
)

// Summarizer classifies and summarizes messages in rate-limited batches.
type Summarizer struct {
	client       Completer
	batchSize    int
	batchDelay   time.Duration
	previewRunes int
	sleeper      batch.Sleeper
	log          logrus.FieldLogger
}

// Option customizes a Summarizer.
type Option func(*Summarizer)

// WithSleeper replaces the pause used between batches.
func WithSleeper(s batch.Sleeper) Option {
	return func(sum *Summarizer) { sum.sleeper = s }
}

// NewSummarizer creates a Summarizer that sends batches through client.
func NewSummarizer(
	client Completer,
	cfg model.LLMConfig,
	log logrus.FieldLogger,
	opts ...Option,
) *Summarizer {
	s := &Summarizer{
		client:       client,
		batchSize:    cfg.BatchSize,
		batchDelay:   cfg.BatchDelay(),
		previewRunes: cfg.BodyPreviewRunes,
		sleeper:      batch.RealSleeper,
		log:          log.WithField("component", "summarizer"),
	}
	if s.batchSize <= 0 {
		s.batchSize = 10
	}
	if s.previewRunes <= 0 {
		s.previewRunes = 800
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Classify summarizes at most maxCount messages; a maxCount of zero or
// less yields an empty digest without calling the model. A batch that
// fails at the transport or parse level contributes no records; the result is
// the error variant only when every batch failed. The returned error is
// non-nil only when ctx is cancelled.
func (s *Summarizer) Classify(
	ctx context.Context,
	messages []model.MessageRecord,
	maxCount int,
) (model.DigestResult, error) {
	messages = messages[:min(max(maxCount, 0), len(messages))]
	result := model.DigestResult{Newsletters: []model.SummaryRecord{}}
	if len(messages) == 0 {
		return result, nil
	}

	var lastRaw string
	var lastErr error

	sleeper := batch.SleeperFunc(func(ctx context.Context, d time.Duration) error {
		s.log.WithField("delay", d).Info("waiting for rate limit")
		return s.sleeper.Sleep(ctx, d)
	})

	res, err := batch.Each(ctx, batch.Config{
		Size:     s.batchSize,
		Interval: s.batchDelay,
		Sleeper:  sleeper,
	}, messages, func(ctx context.Context, b batch.Batch[model.MessageRecord]) error {
		log := s.log.WithFields(logrus.Fields{
			"batch": b.Index + 1,
			"of":    b.Total,
			"from":  b.Offset + 1,
			"to":    b.Offset + len(b.Items),
			"total": len(messages),
		})
		log.Info("sending batch")

		raw, err := s.client.Complete(ctx, []Message{
			{Role: RoleSystem, Content: systemPrompt},
			{Role: RoleUser, Content: buildUserPrompt(b.Items, s.previewRunes)},
		})
		if err != nil {
			log.WithError(err).Error("batch failed")
			lastErr = err
			return err
		}
		lastRaw = raw

		records, err := s.ingest(raw, b.Items, log)
		if err != nil {
			log.WithError(err).Warn("could not parse batch reply")
			lastErr = err
			return err
		}

		result.Newsletters = append(result.Newsletters, records...)
		log.WithField("records", len(records)).Info("batch processed")
		return nil
	})
	if err != nil {
		return result, err
	}

	if res.AllFailed() {
		result.Error = lastErr.Error()
		result.Raw = lastRaw
	}
	return result, nil
}

// ingest parses a batch reply and pairs each item with the message at
// the same position to fill in its date and link.
func (s *Summarizer) ingest(
	raw string,
	sent []model.MessageRecord,
	log logrus.FieldLogger,
) ([]model.SummaryRecord, error) {
	items, err := parseReply(raw)
	if err != nil {
		return nil, err
	}

	if len(items) != len(sent) {
		log.WithFields(logrus.Fields{
			"sent":     len(sent),
			"returned": len(items),
		}).Warn("reply count differs from batch size; dates and links are paired by position")
	}

	records := make([]model.SummaryRecord, 0, len(items))
	for i, item := range items {
		var origin *model.MessageRecord
		if i < len(sent) {
			origin = &sent[i]
		}

		rec, ok := item.toRecord(origin)
		if !ok {
			log.WithField("position", i+1).Warn("dropping record without title")
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
