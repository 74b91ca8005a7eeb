package testutil

import (
	"fmt"
	"strings"
	"time"
)

// Mail describes a synthetic RFC 822 message for parser tests.
type Mail struct {
	MessageID  string
	Subject    string
	From       string
	Date       time.Time
	Text       string
	HTML       string
	Attachment string
}

// Bytes renders m with CRLF line endings. Text and HTML together become
// a multipart/alternative; an Attachment wraps the bodies in a
// multipart/mixed so the alternative part is nested.
func (m Mail) Bytes() []byte {
	var b strings.Builder
	header := func(k, v string) {
		if v != "" {
			fmt.Fprintf(&b, "%s: %s\r\n", k, v)
		}
	}

	header("Message-ID", m.MessageID)
	header("Subject", m.Subject)
	header("From", m.From)
	if !m.Date.IsZero() {
		header("Date", m.Date.Format(time.RFC1123Z))
	}
	header("MIME-Version", "1.0")

	body := m.bodyEntity()
	if m.Attachment != "" {
		var mixed strings.Builder
		mixed.WriteString("Content-Type: multipart/mixed; boundary=\"mixed\"\r\n\r\n")
		if body != "" {
			mixed.WriteString("--mixed\r\n" + body + "\r\n")
		}
		mixed.WriteString("--mixed\r\n")
		mixed.WriteString("Content-Type: application/pdf\r\n")
		fmt.Fprintf(&mixed, "Content-Disposition: attachment; filename=%q\r\n\r\n", m.Attachment)
		mixed.WriteString("JVBERi0xLjQK\r\n")
		mixed.WriteString("--mixed--\r\n")
		body = mixed.String()
	}
	if body == "" {
		body = "Content-Type: text/plain; charset=utf-8\r\n\r\n"
	}

	b.WriteString(body)
	return []byte(b.String())
}

func (m Mail) bodyEntity() string {
	text := "Content-Type: text/plain; charset=utf-8\r\n\r\n" + m.Text + "\r\n"
	html := "Content-Type: text/html; charset=utf-8\r\n\r\n" + m.HTML + "\r\n"

	switch {
	case m.Text != "" && m.HTML != "":
		return "Content-Type: multipart/alternative; boundary=\"alt\"\r\n\r\n" +
			"--alt\r\n" + text +
			"--alt\r\n" + html +
			"--alt--\r\n"
	case m.HTML != "":
		return html
	case m.Text != "":
		return text
	}
	return ""
}
