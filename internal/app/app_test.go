package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/newsdigest/internal/logging"
	"github.com/nhle/newsdigest/internal/model"
	"github.com/nhle/newsdigest/internal/report"
	"github.com/nhle/newsdigest/internal/source"
	"github.com/nhle/newsdigest/internal/testutil"
)

var fixedNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

type fakeMail struct {
	authErr  error
	fetchErr error
	messages []model.MessageRecord
	labels   []string
	calls    []string
	closed   bool
}

var _ source.MailSource = (*fakeMail)(nil)

func (f *fakeMail) Authenticate(context.Context) error {
	f.calls = append(f.calls, "auth")
	return f.authErr
}

func (f *fakeMail) ListLabels(context.Context) ([]string, error) {
	f.calls = append(f.calls, "labels")
	return f.labels, nil
}

func (f *fakeMail) FetchMessages(_ context.Context, _ string, _ int) ([]model.MessageRecord, error) {
	f.calls = append(f.calls, "fetch")
	return f.messages, f.fetchErr
}

func (f *fakeMail) Close() error {
	f.closed = true
	return nil
}

type fakeSummarizer struct {
	result model.DigestResult
	gotMax int
	called bool
}

func (f *fakeSummarizer) Classify(_ context.Context, msgs []model.MessageRecord, maxCount int) (model.DigestResult, error) {
	f.called = true
	f.gotMax = maxCount
	return f.result, nil
}

type fakePublisher struct {
	configured bool
	published  []model.SummaryRecord
	cleared    bool
}

func (f *fakePublisher) IsConfigured() bool { return f.configured }

func (f *fakePublisher) Publish(_ context.Context, recs []model.SummaryRecord) (model.PublishStats, error) {
	f.published = append(f.published, recs...)
	return model.PublishStats{Success: len(recs), Errors: []string{}}, nil
}

func (f *fakePublisher) ClearDatabase(context.Context) (int, error) {
	f.cleared = true
	return 7, nil
}

type harness struct {
	app  *App
	mail *fakeMail
	sum  *fakeSummarizer
	pub  *fakePublisher
	out  *bytes.Buffer
}

func newHarness() *harness {
	h := &harness{
		mail: &fakeMail{messages: testutil.Messages(3, fixedNow)},
		sum: &fakeSummarizer{result: model.DigestResult{Newsletters: []model.SummaryRecord{
			testutil.Record("Uno"), testutil.Record("Dos"),
		}}},
		pub: &fakePublisher{configured: true},
		out: &bytes.Buffer{},
	}
	h.app = New(Deps{
		Mail:       h.mail,
		Summarizer: h.sum,
		Publisher:  h.pub,
		Reporter:   report.New(h.out),
		Log:        logging.Discard(),
	})
	return h
}

func TestRunFullPipeline(t *testing.T) {
	h := newHarness()
	out := filepath.Join(t.TempDir(), "digest.json")

	err := h.app.Run(context.Background(), Options{Label: "News", Days: 7, Max: 10, Output: out})
	require.NoError(t, err)

	assert.Equal(t, []string{"auth", "fetch"}, h.mail.calls)
	assert.True(t, h.mail.closed)
	assert.Equal(t, 10, h.sum.gotMax)
	assert.Len(t, h.pub.published, 2)

	saved, err := ReadDigest(out)
	require.NoError(t, err)
	assert.Equal(t, h.sum.result.Newsletters, saved.Newsletters)
}

func TestRunAuthFailure(t *testing.T) {
	h := newHarness()
	h.mail.authErr = &model.AuthError{Service: "imap", Message: "bad credentials"}

	err := h.app.Run(context.Background(), Options{Label: "News", Days: 7})
	require.Error(t, err)
	assert.True(t, model.IsAuthError(err))
	assert.False(t, h.sum.called)
}

func TestRunMissingLabel(t *testing.T) {
	h := newHarness()
	h.mail.fetchErr = &model.NotFoundError{Kind: "label", Name: "Nope"}

	err := h.app.Run(context.Background(), Options{Label: "Nope", Days: 7})
	require.Error(t, err)
	assert.True(t, model.IsNotFoundError(err))
	assert.Contains(t, err.Error(), "--list-labels")
}

func TestRunNoMessagesStopsEarly(t *testing.T) {
	h := newHarness()
	h.mail.messages = nil

	err := h.app.Run(context.Background(), Options{Label: "News", Days: 7, Output: filepath.Join(t.TempDir(), "d.json")})
	require.NoError(t, err)
	assert.False(t, h.sum.called)
	assert.Contains(t, h.out.String(), "No se encontraron newsletters")
}

func TestRunClassifyErrorWritesRaw(t *testing.T) {
	h := newHarness()
	h.sum.result = model.DigestResult{Error: "parsing model reply: boom", Raw: "not json"}
	dir := t.TempDir()
	out := filepath.Join(dir, "digest.json")

	err := h.app.Run(context.Background(), Options{Label: "News", Days: 7, Output: out})
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, ErrorFileName))
	require.NoError(t, err)
	assert.Equal(t, "not json", string(raw))
	assert.NoFileExists(t, out)
	assert.Empty(t, h.pub.published)
}

func TestRunDryRun(t *testing.T) {
	h := newHarness()
	out := filepath.Join(t.TempDir(), "digest.json")

	err := h.app.Run(context.Background(), Options{Label: "News", Days: 7, Output: out, DryRun: true})
	require.NoError(t, err)
	assert.FileExists(t, out)
	assert.Empty(t, h.pub.published)
	assert.Contains(t, h.out.String(), "Uno")
}

func TestRunUnconfiguredPublisher(t *testing.T) {
	h := newHarness()
	h.pub.configured = false

	err := h.app.Run(context.Background(), Options{Label: "News", Days: 7})
	require.NoError(t, err)
	assert.Empty(t, h.pub.published)
	assert.Contains(t, h.out.String(), "--setup-notion")
}

func TestPublishDigestFromFile(t *testing.T) {
	h := newHarness()
	path := filepath.Join(t.TempDir(), "saved.json")
	_, err := WriteDigest(path, model.DigestResult{Newsletters: []model.SummaryRecord{testutil.Record("Guardado")}})
	require.NoError(t, err)

	require.NoError(t, h.app.PublishDigest(context.Background(), path))
	require.Len(t, h.pub.published, 1)
	assert.Equal(t, "Guardado", h.pub.published[0].Title)
	assert.Empty(t, h.mail.calls)
}

func TestListLabels(t *testing.T) {
	h := newHarness()
	h.mail.labels = []string{"INBOX", "Newsletters"}

	require.NoError(t, h.app.ListLabels(context.Background()))
	assert.Contains(t, h.out.String(), "Newsletters")
	assert.True(t, h.mail.closed)
}

func TestClearNotion(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.app.ClearNotion(context.Background()))
	assert.True(t, h.pub.cleared)
	assert.Contains(t, h.out.String(), "7")

	h = newHarness()
	h.pub.configured = false
	err := h.app.ClearNotion(context.Background())
	assert.True(t, model.IsConfigError(err))
	assert.False(t, h.pub.cleared)
}
