package email

import (
	"time"

	"github.com/emersion/go-imap/v2"
)

// RawMessage is one fetched message before MIME parsing. Err is set
// when the server response for this UID could not be collected.
type RawMessage struct {
	UID  imap.UID
	Body []byte
	Err  error
}

// ParsedMessage holds the decoded headers and body alternatives of a
// message.
type ParsedMessage struct {
	MessageID string
	Subject   string
	From      string
	Date      time.Time
	TextBody  string
	HTMLBody  string
}
