package email

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/inbucket/html2text"

	"github.com/nhle/newsdigest/internal/model"
)

const unknownHeader = "unknown"

// ParseMessage decodes the headers of a raw RFC 822 message and collects
// the first text/html and first text/plain parts, walking nested
// multiparts and skipping attachments. Missing or malformed Subject and
// From become "unknown"; a missing or malformed Date becomes now.
func ParseMessage(raw []byte, now time.Time) (*ParsedMessage, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, &model.ParseError{What: "message", Err: errors.New("empty message")}
	}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return nil, &model.ParseError{What: "message", Err: err}
	}
	defer mr.Close()

	parsed := &ParsedMessage{
		Subject: unknownHeader,
		From:    unknownHeader,
		Date:    now,
	}
	readHeader(mr.Header, parsed)

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if parsed.TextBody != "" || parsed.HTMLBody != "" {
				break
			}
			return nil, &model.ParseError{What: "message body", Err: err}
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}

		contentType, _, err := h.ContentType()
		if err != nil || contentType == "" {
			contentType = "text/plain"
		}

		switch {
		case contentType == "text/html" && parsed.HTMLBody == "":
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}
			parsed.HTMLBody = string(body)
		case contentType == "text/plain" && parsed.TextBody == "":
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}
			parsed.TextBody = string(body)
		}
	}

	return parsed, nil
}

// readHeader fills the decoded header fields of parsed.
func readHeader(h mail.Header, parsed *ParsedMessage) {
	if id, err := h.MessageID(); err == nil {
		parsed.MessageID = id
	}

	if subject, err := h.Subject(); err == nil && strings.TrimSpace(subject) != "" {
		parsed.Subject = strings.TrimSpace(subject)
	} else if raw := strings.TrimSpace(h.Get("Subject")); raw != "" {
		parsed.Subject = decodeWords(raw)
	}

	if from := formatFrom(h); from != "" {
		parsed.From = from
	}

	if date, err := h.Date(); err == nil && !date.IsZero() {
		parsed.Date = date
	}
}

// formatFrom renders the first From address as "Name <addr>", or the
// decoded raw header when it does not parse as an address list.
func formatFrom(h mail.Header) string {
	addrs, err := h.AddressList("From")
	if err == nil && len(addrs) > 0 {
		a := addrs[0]
		if a.Name != "" {
			return fmt.Sprintf("%s <%s>", a.Name, a.Address)
		}
		return a.Address
	}
	return decodeWords(strings.TrimSpace(h.Get("From")))
}

var wordDecoder = &mime.WordDecoder{}

// decodeWords decodes RFC 2047 encoded words, returning s unchanged when
// decoding fails.
func decodeWords(s string) string {
	decoded, err := wordDecoder.DecodeHeader(s)
	if err != nil {
		return s
	}
	return decoded
}

// ExtractBody returns the plain-text body of parsed: the HTML
// alternative converted to text when present, else the plain-text
// alternative, else "". The result is at most model.MaxBodyRunes long.
func ExtractBody(parsed *ParsedMessage) string {
	var body string
	if strings.TrimSpace(parsed.HTMLBody) != "" {
		text, err := htmlToText(parsed.HTMLBody)
		if err == nil {
			body = text
		}
	}
	if body == "" {
		body = strings.TrimSpace(parsed.TextBody)
	}
	return model.Truncate(body, model.MaxBodyRunes)
}

var blankLines = regexp.MustCompile(`\n{3,}`)

// htmlToText renders newsletter HTML as text. Images, styles and
// scripts are dropped; links are kept as "text ( url )"; lines are not
// wrapped.
func htmlToText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parsing html: %w", err)
	}
	doc.Find("img, style, script, head, noscript").Remove()

	cleaned, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("rendering html: %w", err)
	}

	text, err := html2text.FromString(cleaned, html2text.Options{})
	if err != nil {
		return "", fmt.Errorf("converting html: %w", err)
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text), nil
}
