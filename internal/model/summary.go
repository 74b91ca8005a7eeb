package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Category classifies a newsletter.
type Category string

const (
	CategoryTool     Category = "Herramienta"
	CategoryTutorial Category = "Tutorial"
	CategoryNews     Category = "Noticia"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryTool, CategoryTutorial, CategoryNews:
		return true
	}
	return false
}

// Limits applied to summary records before they are published.
const (
	MaxSummaryRunes = 2000
	MaxRecordTags   = 2
)

const dateLayout = "2006-01-02"

// Date is a calendar day serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate returns the calendar day of t, as seen in t's own location.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler. Null and empty strings
// decode to the zero date.
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding date: %w", err)
	}
	if strings.TrimSpace(s) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// SummaryRecord is the classified, summarized form of one newsletter.
// JSON field names are shared with the persisted digest file.
type SummaryRecord struct {
	Title    string   `json:"titulo"`
	Source   string   `json:"fuente"`
	Category Category `json:"categoria"`
	Tool     *string  `json:"herramienta"`
	Summary  string   `json:"resumen"`
	Tags     []string `json:"tags"`
	Date     Date     `json:"fecha"`
	Link     string   `json:"link"`
}

// TitleKey returns the identity key used for deduplication.
func (r SummaryRecord) TitleKey() string {
	return NormalizeTitle(r.Title)
}

// NormalizeTitle lower-cases and trims a title for comparison.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// DigestResult is the unit of exchange between pipeline stages and the
// persisted digest file. When no record could be produced, Error is set
// and Raw may carry the last raw model reply.
type DigestResult struct {
	Newsletters []SummaryRecord `json:"newsletters"`
	Error       string          `json:"error,omitempty"`
	Raw         string          `json:"raw,omitempty"`
}

// Failed reports whether the result is the error variant.
func (d DigestResult) Failed() bool {
	return d.Error != ""
}
