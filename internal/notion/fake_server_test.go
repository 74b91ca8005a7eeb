package notion

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/nhle/newsdigest/internal/model"
)

// fakeNotion is an in-memory Notion database served over HTTP.
type fakeNotion struct {
	t *testing.T

	mu          sync.Mutex
	pages       []Page
	created     []CreatePageRequest
	archived    []string
	queries     []QueryRequest
	failCreates map[string]bool // titles that get a 400
	nextID      int
}

func newFakeNotion(t *testing.T, titles ...string) (*fakeNotion, model.NotionConfig) {
	t.Helper()

	f := &fakeNotion{t: t, failCreates: map[string]bool{}}
	for _, title := range titles {
		f.addPage(title)
	}

	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)

	cfg := model.DefaultAppConfig().Notion
	cfg.BaseURL = srv.URL + "/v1"
	cfg.Token = "secret_test"
	cfg.DatabaseID = "db123"
	return f, cfg
}

func (f *fakeNotion) addPage(title string) {
	f.nextID++
	f.pages = append(f.pages, Page{
		ID: fmt.Sprintf("page-%d", f.nextID),
		Properties: map[string]PropertyValue{
			PropTitle: {Title: []RichText{{Type: "text", Text: &TextContent{Content: title}, PlainText: title}}},
		},
	})
}

func (f *fakeNotion) live() []Page {
	var out []Page
	for _, p := range f.pages {
		if !p.Archived {
			out = append(out, p)
		}
	}
	return out
}

func (f *fakeNotion) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Header.Get("Authorization") != "Bearer secret_test" {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Code: "unauthorized", Message: "API token is invalid."})
		return
	}
	if r.Header.Get("Notion-Version") != "2022-06-28" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Code: "missing_version", Message: "Notion-Version header missing"})
		return
	}

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/v1/databases/db123/query":
		var req QueryRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.queries = append(f.queries, req)

		live := f.live()
		start := 0
		if req.StartCursor != "" {
			start, _ = strconv.Atoi(req.StartCursor)
		}
		end := min(start+req.PageSize, len(live))
		resp := QueryResponse{Results: live[start:end]}
		if end < len(live) {
			next := strconv.Itoa(end)
			resp.HasMore = true
			resp.NextCursor = &next
		}
		writeJSON(w, http.StatusOK, resp)

	case r.Method == http.MethodPost && r.URL.Path == "/v1/pages":
		var req CreatePageRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		title := req.Properties[PropTitle].Title[0].Text.Content
		if f.failCreates[title] {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Code: "validation_error", Message: "Tags is not a property that exists."})
			return
		}
		f.created = append(f.created, req)
		f.addPage(title)
		writeJSON(w, http.StatusOK, f.pages[len(f.pages)-1])

	case r.Method == http.MethodPatch && strings.HasPrefix(r.URL.Path, "/v1/pages/"):
		id := strings.TrimPrefix(r.URL.Path, "/v1/pages/")
		var req updatePageRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		for i := range f.pages {
			if f.pages[i].ID == id {
				f.pages[i].Archived = req.Archived
				f.archived = append(f.archived, id)
				writeJSON(w, http.StatusOK, f.pages[i])
				return
			}
		}
		writeJSON(w, http.StatusNotFound, ErrorResponse{Code: "object_not_found", Message: "page not found"})

	default:
		writeJSON(w, http.StatusNotFound, ErrorResponse{Code: "invalid_request_url", Message: r.URL.Path})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
