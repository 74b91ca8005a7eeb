package source

import (
	"context"

	"github.com/nhle/newsdigest/internal/model"
)

// MailSource defines the contract for reading newsletters from a mailbox.
type MailSource interface {
	// Authenticate verifies credentials and connectivity. It fails with
	// a *model.ConfigError when credentials are missing and with a
	// *model.AuthError when the server rejects them.
	Authenticate(ctx context.Context) error

	// ListLabels returns the names of every label (mailbox) available.
	ListLabels(ctx context.Context) ([]string, error)

	// FetchMessages returns the messages in label received within the
	// last daysBack days, most recent first. It fails with a
	// *model.NotFoundError when the label does not exist. An empty
	// label yields an empty slice and no error.
	FetchMessages(
		ctx context.Context,
		label string,
		daysBack int,
	) ([]model.MessageRecord, error)

	// Close releases the underlying connection.
	Close() error
}
