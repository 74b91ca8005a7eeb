// Package report prints run progress and results to the console.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/nhle/newsdigest/internal/model"
	"github.com/nhle/newsdigest/internal/theme"
)

const (
	previewCount     = 3
	previewTitleRune = 60
	errorCount       = 3
	errorRunes       = 100
)

// Reporter writes styled, line-oriented output.
type Reporter struct {
	w io.Writer
}

// New returns a Reporter writing to w.
func New(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

func (r *Reporter) println(s string) {
	fmt.Fprintln(r.w, s)
}

// Banner prints the run header.
func (r *Reporter) Banner(title string) {
	r.println(theme.HeaderStyle.Render(title))
}

// Step announces a pipeline stage.
func (r *Reporter) Step(format string, args ...any) {
	r.println(theme.StepStyle.Render("▸ ") + fmt.Sprintf(format, args...))
}

// Success reports a completed step.
func (r *Reporter) Success(format string, args ...any) {
	r.println(theme.SuccessStyle.Render("  ✓ " + fmt.Sprintf(format, args...)))
}

// Warn reports a partial or skipped result.
func (r *Reporter) Warn(format string, args ...any) {
	r.println(theme.WarnStyle.Render("  ! " + fmt.Sprintf(format, args...)))
}

// Error reports a failure, followed by its remediation hint when err
// carries one.
func (r *Reporter) Error(err error) {
	msg := err.Error()
	hint := ""
	if i := strings.Index(msg, "\n"); i >= 0 {
		msg, hint = msg[:i], msg[i+1:]
	}
	r.println(theme.ErrorStyle.Render("✗ " + msg))
	if hint != "" {
		r.Hint(hint)
	}
}

// Hint prints secondary guidance, one line per input line.
func (r *Reporter) Hint(text string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		r.println(theme.HintStyle.Render("  " + line))
	}
}

// Plain prints text unstyled.
func (r *Reporter) Plain(text string) {
	r.println(text)
}

// Labels prints mailbox labels as a bulleted list.
func (r *Reporter) Labels(labels []string) {
	r.Step("%s labels available", humanize.Comma(int64(len(labels))))
	for _, l := range labels {
		r.println("  • " + l)
	}
}

// Preview prints the first records of a digest and how many remain.
func (r *Reporter) Preview(records []model.SummaryRecord) {
	for _, rec := range records[:min(previewCount, len(records))] {
		category := theme.CategoryStyle(string(rec.Category)).Render(string(rec.Category))
		fmt.Fprintf(r.w, "  • [%s] %s\n", category, model.Truncate(rec.Title, previewTitleRune))
		if rec.Date.String() != "" {
			r.println(theme.HintStyle.Render("    " + rec.Date.String() + " · " + rec.Source))
		}
	}
	if extra := len(records) - previewCount; extra > 0 {
		fmt.Fprintf(r.w, "  ... y %s más\n", humanize.Comma(int64(extra)))
	}
}

// Stats prints the outcome of a publish run and the first errors.
func (r *Reporter) Stats(stats model.PublishStats) {
	lines := []string{
		theme.SuccessStyle.Render(fmt.Sprintf("Creados:   %s", humanize.Comma(int64(stats.Success)))),
		theme.WarnStyle.Render(fmt.Sprintf("Omitidos:  %s", humanize.Comma(int64(stats.Skipped)))),
		theme.ErrorStyle.Render(fmt.Sprintf("Fallidos:  %s", humanize.Comma(int64(stats.Failed)))),
	}
	r.println(theme.PanelStyle.Render(strings.Join(lines, "\n")))

	for _, e := range stats.Errors[:min(errorCount, len(stats.Errors))] {
		r.println(theme.HintStyle.Render("  - " + model.Truncate(e, errorRunes)))
	}
}

// Saved reports a written file and its size.
func (r *Reporter) Saved(path string, size int) {
	r.Success("guardado en %s (%s)", path, humanize.Bytes(uint64(size)))
}
