package email

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// BuildLink formats template with the query-escaped message ID. It
// returns "" when either is empty or the template has no %s verb.
func BuildLink(template, messageID string) string {
	messageID = strings.Trim(strings.TrimSpace(messageID), "<>")
	if template == "" || messageID == "" || !strings.Contains(template, "%s") {
		return ""
	}
	return fmt.Sprintf(template, url.QueryEscape(messageID))
}

// BuildSearchLink formats template with a query-escaped search for
// subject on the calendar day of date. It returns "" when the template
// has no %s verb or subject is empty.
func BuildSearchLink(template, subject string, date time.Time) string {
	subject = strings.TrimSpace(strings.ReplaceAll(subject, `"`, ""))
	if subject == "" || !strings.Contains(template, "%s") {
		return ""
	}
	query := fmt.Sprintf(
		`subject:"%s" after:%s before:%s`,
		subject,
		date.Format("2006/01/02"),
		date.AddDate(0, 0, 1).Format("2006/01/02"),
	)
	return fmt.Sprintf(template, url.QueryEscape(query))
}
