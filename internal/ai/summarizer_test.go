package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/newsdigest/internal/logging"
	"github.com/nhle/newsdigest/internal/model"
	"github.com/nhle/newsdigest/internal/testutil"
)

var fixedNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

// scriptedCompleter replays replies in order and records each request.
type scriptedCompleter struct {
	replies  []func(n int) (string, error)
	requests [][]Message
}

func (s *scriptedCompleter) Complete(_ context.Context, msgs []Message) (string, error) {
	s.requests = append(s.requests, msgs)
	i := len(s.requests) - 1
	if i >= len(s.replies) {
		return "", errors.New("unexpected call")
	}
	return s.replies[i](countNewsletters(msgs[1].Content))
}

func countNewsletters(userPrompt string) int {
	return strings.Count(userPrompt, "\nNewsletter ")
}

// echoReply returns a valid reply with one record per sent message and
// a fabricated date on every record.
func echoReply(n int) (string, error) {
	items := make([]map[string]any, 0, n)
	for i := range n {
		items = append(items, map[string]any{
			"titulo":      fmt.Sprintf("Item %d", i+1),
			"fuente":      "Model Source",
			"categoria":   "Noticia",
			"herramienta": nil,
			"resumen":     "Resumen",
			"tags":        []string{"noticia", "llm"},
			"fecha":       "2001-09-09",
		})
	}
	b, err := json.Marshal(map[string]any{"newsletters": items})
	return "```json\n" + string(b) + "\n```", err
}

func garbageReply(int) (string, error) { return "no JSON here", nil }

func failingReply(int) (string, error) {
	return "", &model.TransportError{Service: "llm", StatusCode: 503, Err: errors.New("over capacity")}
}

type recordingSleeper struct{ calls []time.Duration }

func (r *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	r.calls = append(r.calls, d)
	return nil
}

func newTestSummarizer(c Completer, sleeper *recordingSleeper) *Summarizer {
	cfg := model.DefaultAppConfig().LLM
	return NewSummarizer(c, cfg, logging.Discard(), WithSleeper(sleeper))
}

func TestClassifyBatchesOf23(t *testing.T) {
	client := &scriptedCompleter{replies: []func(int) (string, error){echoReply, echoReply, echoReply}}
	sleeper := &recordingSleeper{}
	s := newTestSummarizer(client, sleeper)

	result, err := s.Classify(context.Background(), testutil.Messages(23, fixedNow), 23)
	require.NoError(t, err)
	assert.False(t, result.Failed())

	require.Len(t, client.requests, 3)
	assert.Equal(t, 10, countNewsletters(client.requests[0][1].Content))
	assert.Equal(t, 10, countNewsletters(client.requests[1][1].Content))
	assert.Equal(t, 3, countNewsletters(client.requests[2][1].Content))
	assert.Equal(t, []time.Duration{65 * time.Second, 65 * time.Second}, sleeper.calls)

	assert.Len(t, result.Newsletters, 23)
	for _, req := range client.requests {
		assert.Equal(t, RoleSystem, req[0].Role)
		assert.Equal(t, systemPrompt, req[0].Content)
		assert.Equal(t, RoleUser, req[1].Role)
	}
}

func TestClassifyOverridesDateAndFillsLink(t *testing.T) {
	client := &scriptedCompleter{replies: []func(int) (string, error){echoReply, echoReply}}
	s := newTestSummarizer(client, &recordingSleeper{})
	msgs := testutil.Messages(12, fixedNow)

	result, err := s.Classify(context.Background(), msgs, 20)
	require.NoError(t, err)
	require.Len(t, result.Newsletters, 12)

	for i, rec := range result.Newsletters {
		assert.Equal(t, model.NewDate(msgs[i].Date), rec.Date, "record %d", i)
		assert.NotEqual(t, "2001-09-09", rec.Date.String())
		assert.Equal(t, msgs[i].Link, rec.Link)
	}
}

func TestClassifyTruncatesToMax(t *testing.T) {
	client := &scriptedCompleter{replies: []func(int) (string, error){echoReply}}
	s := newTestSummarizer(client, &recordingSleeper{})

	result, err := s.Classify(context.Background(), testutil.Messages(15, fixedNow), 4)
	require.NoError(t, err)
	require.Len(t, client.requests, 1)
	assert.Equal(t, 4, countNewsletters(client.requests[0][1].Content))
	assert.Len(t, result.Newsletters, 4)
}

func TestClassifyNonPositiveMaxSendsNothing(t *testing.T) {
	for _, maxCount := range []int{0, -3} {
		client := &scriptedCompleter{replies: []func(int) (string, error){echoReply}}
		sleeper := &recordingSleeper{}
		s := newTestSummarizer(client, sleeper)

		result, err := s.Classify(context.Background(), testutil.Messages(3, fixedNow), maxCount)
		require.NoError(t, err)
		assert.Empty(t, client.requests, "max %d", maxCount)
		assert.Empty(t, sleeper.calls, "max %d", maxCount)
		assert.NotNil(t, result.Newsletters)
		assert.Empty(t, result.Newsletters)
		assert.False(t, result.Failed())
	}
}

func TestClassifyMaxAboveInputKeepsAll(t *testing.T) {
	client := &scriptedCompleter{replies: []func(int) (string, error){echoReply}}
	s := newTestSummarizer(client, &recordingSleeper{})

	result, err := s.Classify(context.Background(), testutil.Messages(3, fixedNow), 50)
	require.NoError(t, err)
	assert.Len(t, result.Newsletters, 3)
}

func TestClassifyGarbageBatchContributesNothing(t *testing.T) {
	client := &scriptedCompleter{replies: []func(int) (string, error){echoReply, garbageReply}}
	s := newTestSummarizer(client, &recordingSleeper{})

	result, err := s.Classify(context.Background(), testutil.Messages(15, fixedNow), 15)
	require.NoError(t, err)
	assert.False(t, result.Failed())
	assert.Len(t, result.Newsletters, 10)
}

func TestClassifyTransportErrorContinues(t *testing.T) {
	client := &scriptedCompleter{replies: []func(int) (string, error){failingReply, echoReply}}
	s := newTestSummarizer(client, &recordingSleeper{})

	result, err := s.Classify(context.Background(), testutil.Messages(13, fixedNow), 13)
	require.NoError(t, err)
	assert.False(t, result.Failed())
	assert.Len(t, result.Newsletters, 3)
	assert.Equal(t, "Item 1", result.Newsletters[0].Title)
}

func TestClassifyAllBatchesFailed(t *testing.T) {
	client := &scriptedCompleter{replies: []func(int) (string, error){failingReply, garbageReply}}
	s := newTestSummarizer(client, &recordingSleeper{})

	result, err := s.Classify(context.Background(), testutil.Messages(11, fixedNow), 11)
	require.NoError(t, err)
	assert.True(t, result.Failed())
	assert.Empty(t, result.Newsletters)
	assert.Equal(t, "no JSON here", result.Raw)
	assert.Contains(t, result.Error, "model reply")
}

func TestClassifyShortReplyPairsByPosition(t *testing.T) {
	short := func(int) (string, error) {
		return `{"newsletters":[{"titulo":"Only one","categoria":"Tutorial"}]}`, nil
	}
	client := &scriptedCompleter{replies: []func(int) (string, error){short}}
	s := newTestSummarizer(client, &recordingSleeper{})
	msgs := testutil.Messages(3, fixedNow)

	result, err := s.Classify(context.Background(), msgs, 10)
	require.NoError(t, err)
	require.Len(t, result.Newsletters, 1)
	assert.Equal(t, model.NewDate(msgs[0].Date), result.Newsletters[0].Date)
	assert.Equal(t, msgs[0].Sender, result.Newsletters[0].Source)
}

func TestClassifyEmptyInput(t *testing.T) {
	client := &scriptedCompleter{}
	s := newTestSummarizer(client, &recordingSleeper{})

	result, err := s.Classify(context.Background(), nil, 10)
	require.NoError(t, err)
	assert.Empty(t, client.requests)
	assert.NotNil(t, result.Newsletters)
	assert.False(t, result.Failed())
}

func TestClassifyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := &scriptedCompleter{replies: []func(int) (string, error){
		func(n int) (string, error) {
			cancel()
			return echoReply(n)
		},
	}}
	s := newTestSummarizer(client, &recordingSleeper{})

	result, err := s.Classify(ctx, testutil.Messages(20, fixedNow), 20)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, result.Newsletters, 10)
}
