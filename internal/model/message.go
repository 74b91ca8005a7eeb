package model

import "time"

// MaxBodyRunes caps the plain-text body kept for each message.
const MaxBodyRunes = 15000

// MessageRecord is a single newsletter email as read from the mailbox.
// Records are produced by a mail source and never modified afterwards.
type MessageRecord struct {
	// ID is the provider identifier of the message (Message-ID header
	// without angle brackets, or the IMAP UID when the header is absent).
	ID string `json:"id"`

	// Subject is the decoded Subject header.
	Subject string `json:"subject"`

	// Sender is the decoded From header.
	Sender string `json:"from"`

	// Date is the true message date taken from the Date header.
	Date time.Time `json:"date"`

	// Body is the plain-text rendering of the message, at most
	// MaxBodyRunes runes long.
	Body string `json:"body"`

	// Link opens the original message in the provider's web interface.
	Link string `json:"link"`
}

// Truncate returns s cut to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
