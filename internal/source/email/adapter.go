package email

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/nhle/newsdigest/internal/model"
	"github.com/nhle/newsdigest/internal/source"
)

// Adapter implements source.MailSource over IMAP.
type Adapter struct {
	client    mailbox
	cfg       model.MailConfig
	log       logrus.FieldLogger
	now       func() time.Time
	connected bool
}

var _ source.MailSource = (*Adapter)(nil)

// NewAdapter creates a new IMAP mail source.
func NewAdapter(cfg model.MailConfig, log logrus.FieldLogger) *Adapter {
	return newAdapter(NewIMAPClient(cfg), cfg, log, time.Now)
}

func newAdapter(
	client mailbox,
	cfg model.MailConfig,
	log logrus.FieldLogger,
	now func() time.Time,
) *Adapter {
	return &Adapter{
		client: client,
		cfg:    cfg,
		log:    log.WithField("component", "mail"),
		now:    now,
	}
}

// Authenticate validates the configured credentials and logs in.
func (a *Adapter) Authenticate(ctx context.Context) error {
	if a.connected {
		return nil
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	if err := a.client.Connect(ctx); err != nil {
		return fmt.Errorf("authenticating %s: %w", a.cfg.Username, err)
	}

	a.connected = true
	a.log.WithField("user", a.cfg.Username).Info("connected to mailbox")
	return nil
}

// ListLabels returns every selectable mailbox name, sorted.
func (a *Adapter) ListLabels(ctx context.Context) ([]string, error) {
	if err := a.Authenticate(ctx); err != nil {
		return nil, err
	}

	names, err := a.client.ListMailboxes(ctx)
	if err != nil {
		return nil, err
	}
	slices.Sort(names)
	return names, nil
}

// FetchMessages returns the messages in label dated within the last
// daysBack days, most recent first. Messages that fail to parse are
// logged and skipped. A negative daysBack is rejected.
func (a *Adapter) FetchMessages(
	ctx context.Context,
	label string,
	daysBack int,
) ([]model.MessageRecord, error) {
	if daysBack < 0 {
		return nil, fmt.Errorf("days back must not be negative, got %d", daysBack)
	}
	if err := a.Authenticate(ctx); err != nil {
		return nil, err
	}

	mailboxName, err := a.resolveLabel(ctx, label)
	if err != nil {
		return nil, err
	}

	count, err := a.client.SelectReadOnly(ctx, mailboxName)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return []model.MessageRecord{}, nil
	}

	now := a.now()
	cutoff := now.AddDate(0, 0, -daysBack)

	uids, err := a.client.SearchSince(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	log := a.log.WithField("label", mailboxName)
	log.WithField("count", len(uids)).Info("found messages")
	if len(uids) == 0 {
		return []model.MessageRecord{}, nil
	}

	raws, err := a.client.FetchRaw(ctx, uids)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.WithError(err).Warn("fetch ended early")
	}

	records := make([]model.MessageRecord, 0, len(raws))
	var totalBytes uint64
	for _, raw := range raws {
		if raw.Err != nil {
			log.WithError(raw.Err).Warn("skipping message")
			continue
		}
		totalBytes += uint64(len(raw.Body))

		rec, err := a.toRecord(raw, now)
		if err != nil {
			log.WithField("uid", raw.UID).WithError(err).Warn("skipping message")
			continue
		}
		if rec.Date.Before(cutoff) {
			continue
		}
		records = append(records, rec)
	}

	sortByDateDesc(records)

	log.WithFields(logrus.Fields{
		"kept":  len(records),
		"bytes": humanize.Bytes(totalBytes),
	}).Debug("parsed messages")

	return records, nil
}

// Close logs out of the server.
func (a *Adapter) Close() error {
	if !a.connected {
		return nil
	}
	a.connected = false
	return a.client.Logout()
}

// resolveLabel matches label against the mailbox list, exactly first
// and then case-insensitively.
func (a *Adapter) resolveLabel(ctx context.Context, label string) (string, error) {
	names, err := a.client.ListMailboxes(ctx)
	if err != nil {
		return "", err
	}

	if slices.Contains(names, label) {
		return label, nil
	}
	for _, name := range names {
		if strings.EqualFold(name, label) {
			return name, nil
		}
	}
	return "", &model.NotFoundError{Kind: "label", Name: label}
}

// toRecord parses a fetched message into a MessageRecord.
func (a *Adapter) toRecord(raw RawMessage, now time.Time) (model.MessageRecord, error) {
	parsed, err := ParseMessage(raw.Body, now)
	if err != nil {
		return model.MessageRecord{}, err
	}

	id := parsed.MessageID
	if id == "" {
		id = strconv.FormatUint(uint64(raw.UID), 10)
	}

	link := BuildLink(a.cfg.LinkTemplate, parsed.MessageID)
	if link == "" {
		link = BuildSearchLink(a.cfg.SearchLinkTemplate, parsed.Subject, parsed.Date)
	}

	return model.MessageRecord{
		ID:      id,
		Subject: parsed.Subject,
		Sender:  parsed.From,
		Date:    parsed.Date,
		Body:    ExtractBody(parsed),
		Link:    link,
	}, nil
}

// sortByDateDesc orders records most recent first, keeping the server
// order for equal dates.
func sortByDateDesc(records []model.MessageRecord) {
	slices.SortStableFunc(records, func(x, y model.MessageRecord) int {
		return y.Date.Compare(x.Date)
	})
}
