package notion

import "strings"

// Property names of the target database.
const (
	PropTitle    = "Título"
	PropSource   = "Fuente"
	PropDate     = "Fecha"
	PropCategory = "Categoría"
	PropSummary  = "Resumen"
	PropTags     = "Tags"
	PropTool     = "Herramienta o librería"
	PropLink     = "Link"
)

// Limits enforced by the Notion API or by the database layout.
const (
	maxTextRunes = 2000
	maxPageTags  = 5
)

// --- Notion API types ---

// RichText is a text object inside title and rich_text properties.
type RichText struct {
	Type      string       `json:"type,omitempty"`
	Text      *TextContent `json:"text,omitempty"`
	PlainText string       `json:"plain_text,omitempty"`
}

// TextContent is the payload of a text rich-text object.
type TextContent struct {
	Content string `json:"content"`
}

// SelectOption names a select or multi_select choice.
type SelectOption struct {
	Name string `json:"name"`
}

// DateValue is the payload of a date property.
type DateValue struct {
	Start string `json:"start"`
}

// PropertyValue holds one page property. Only the field matching the
// property type is set.
type PropertyValue struct {
	Title       []RichText     `json:"title,omitempty"`
	RichText    []RichText     `json:"rich_text,omitempty"`
	Date        *DateValue     `json:"date,omitempty"`
	Select      *SelectOption  `json:"select,omitempty"`
	MultiSelect []SelectOption `json:"multi_select,omitempty"`
	URL         *string        `json:"url,omitempty"`
}

// Page is a database row.
type Page struct {
	ID         string                   `json:"id"`
	Archived   bool                     `json:"archived"`
	URL        string                   `json:"url,omitempty"`
	Properties map[string]PropertyValue `json:"properties"`
}

// PlainTitle joins the title fragments of the page.
func (p Page) PlainTitle() string {
	var sb strings.Builder
	for _, rt := range p.Properties[PropTitle].Title {
		switch {
		case rt.PlainText != "":
			sb.WriteString(rt.PlainText)
		case rt.Text != nil:
			sb.WriteString(rt.Text.Content)
		}
	}
	return sb.String()
}

// Parent identifies the database a page is created in.
type Parent struct {
	DatabaseID string `json:"database_id"`
}

// CreatePageRequest is the body of POST /pages.
type CreatePageRequest struct {
	Parent     Parent                   `json:"parent"`
	Properties map[string]PropertyValue `json:"properties"`
}

// QueryRequest is the body of POST /databases/{id}/query.
type QueryRequest struct {
	PageSize    int    `json:"page_size,omitempty"`
	StartCursor string `json:"start_cursor,omitempty"`
}

// QueryResponse is one page of query results.
type QueryResponse struct {
	Results    []Page  `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

type updatePageRequest struct {
	Archived bool `json:"archived"`
}

// ErrorResponse is the body Notion returns for non-2xx responses.
type ErrorResponse struct {
	Object  string `json:"object"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
