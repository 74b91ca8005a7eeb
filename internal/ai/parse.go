package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/nhle/newsdigest/internal/model"
)

// replyRecord is one item of the model reply as written by the model.
// Unknown fields are ignored.
type replyRecord struct {
	Title    string       `json:"titulo"`
	Source   string       `json:"fuente"`
	Category string       `json:"categoria"`
	Tool     *string      `json:"herramienta"`
	Summary  string       `json:"resumen"`
	Tags     looseStrings `json:"tags"`
	Date     string       `json:"fecha"`
	Link     string       `json:"link"`
}

type replyEnvelope struct {
	Newsletters []replyRecord `json:"newsletters"`
}

// looseStrings accepts a JSON array of strings, a single string or null.
type looseStrings []string

func (l *looseStrings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = looseStrings{s}
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*l = items
	return nil
}

// stripFences removes a Markdown code fence around content, including a
// leading "json" language tag.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	content = strings.TrimPrefix(content, "```")
	if end := strings.Index(content, "```"); end >= 0 {
		content = content[:end]
	}
	content = strings.TrimSpace(content)
	if len(content) >= 4 && strings.EqualFold(content[:4], "json") {
		content = content[4:]
	}
	return strings.TrimSpace(content)
}

// parseReply decodes the model reply into reply records. When the
// fence-stripped text is not valid JSON, the outermost {...} span is
// tried before giving up.
func parseReply(content string) ([]replyRecord, error) {
	text := stripFences(content)
	if text == "" {
		return nil, &model.ParseError{What: "model reply", Err: errors.New("empty reply")}
	}

	env, err := decodeEnvelope(text)
	if err != nil {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start < 0 || end <= start {
			return nil, &model.ParseError{What: "model reply", Err: err}
		}
		var spanErr error
		env, spanErr = decodeEnvelope(text[start : end+1])
		if spanErr != nil {
			return nil, &model.ParseError{What: "model reply", Err: err}
		}
	}

	return env.Newsletters, nil
}

func decodeEnvelope(text string) (replyEnvelope, error) {
	var env replyEnvelope
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		return replyEnvelope{}, err
	}
	if env.Newsletters == nil {
		return replyEnvelope{}, errors.New(`missing "newsletters" array`)
	}
	return env, nil
}

// toRecord validates a reply record and applies defaults. origin is the
// message at the same position in the batch, or nil when the model
// returned more items than it was sent. ok is false when the record has
// no usable title.
func (r replyRecord) toRecord(origin *model.MessageRecord) (model.SummaryRecord, bool) {
	rec := model.SummaryRecord{
		Title:    strings.TrimSpace(r.Title),
		Source:   strings.TrimSpace(r.Source),
		Category: normalizeCategory(r.Category),
		Tool:     normalizeTool(r.Tool),
		Summary:  model.Truncate(strings.TrimSpace(r.Summary), model.MaxSummaryRunes),
		Tags:     normalizeTags(r.Tags),
		Link:     strings.TrimSpace(r.Link),
	}

	if origin != nil {
		if rec.Title == "" {
			rec.Title = strings.TrimSpace(origin.Subject)
		}
		if rec.Source == "" {
			rec.Source = origin.Sender
		}
		rec.Date = model.NewDate(origin.Date)
		if rec.Link == "" {
			rec.Link = origin.Link
		}
	} else if d, err := model.ParseDate(r.Date); err == nil {
		rec.Date = d
	}

	return rec, rec.Title != ""
}

func normalizeCategory(raw string) model.Category {
	raw = strings.TrimSpace(raw)
	for _, c := range []model.Category{
		model.CategoryTool, model.CategoryTutorial, model.CategoryNews,
	} {
		if strings.EqualFold(raw, string(c)) {
			return c
		}
	}
	return model.CategoryNews
}

func normalizeTool(raw *string) *string {
	if raw == nil {
		return nil
	}
	tool := strings.TrimSpace(*raw)
	switch strings.ToLower(tool) {
	case "", "null", "none", "n/a":
		return nil
	}
	return &tool
}

func normalizeTags(raw []string) []string {
	tags := make([]string, 0, model.MaxRecordTags)
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		tags = append(tags, t)
		if len(tags) == model.MaxRecordTags {
			break
		}
	}
	return tags
}
