package testutil

import (
	"fmt"
	"time"

	"github.com/nhle/newsdigest/internal/model"
)

// Messages returns n message records dated one hour apart, newest first,
// starting at start.
func Messages(n int, start time.Time) []model.MessageRecord {
	msgs := make([]model.MessageRecord, 0, n)
	for i := range n {
		msgs = append(msgs, model.MessageRecord{
			ID:      fmt.Sprintf("msg-%d@example.com", i),
			Subject: fmt.Sprintf("Newsletter %d", i),
			Sender:  fmt.Sprintf("Sender %d <news%d@example.com>", i, i),
			Date:    start.Add(-time.Duration(i) * time.Hour),
			Body:    fmt.Sprintf("Body of newsletter %d", i),
			Link:    fmt.Sprintf("https://mail.example.com/msg-%d", i),
		})
	}
	return msgs
}

// Record returns a valid summary record with the given title.
func Record(title string) model.SummaryRecord {
	tool := "Go"
	return model.SummaryRecord{
		Title:    title,
		Source:   "Go Weekly",
		Category: model.CategoryTool,
		Tool:     &tool,
		Summary:  "A summary of " + title,
		Tags:     []string{"Go", "Backend"},
		Date:     model.NewDate(time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC)),
		Link:     "https://mail.example.com/" + title,
	}
}
