package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"slices"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/nhle/newsdigest/internal/model"
)

// mailbox is the subset of IMAP operations the adapter relies on.
type mailbox interface {
	Connect(ctx context.Context) error
	ListMailboxes(ctx context.Context) ([]string, error)
	SelectReadOnly(ctx context.Context, name string) (uint32, error)
	SearchSince(ctx context.Context, since time.Time) ([]imap.UID, error)
	FetchRaw(ctx context.Context, uids []imap.UID) ([]RawMessage, error)
	Logout() error
}

// IMAPClient wraps a single go-imap v2 session. Connect must be called
// before any other method.
type IMAPClient struct {
	host        string
	port        string
	username    string
	password    string
	dialTimeout time.Duration

	client *imapclient.Client
}

// NewIMAPClient creates a new IMAP client configuration.
func NewIMAPClient(cfg model.MailConfig) *IMAPClient {
	timeout := cfg.DialTimeout()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &IMAPClient{
		host:        cfg.Host,
		port:        cfg.Port,
		username:    cfg.Username,
		password:    cfg.Password,
		dialTimeout: timeout,
	}
}

// Connect dials the server over implicit TLS and logs in. A rejected
// login is reported as *model.AuthError.
func (c *IMAPClient) Connect(ctx context.Context) error {
	if c.client != nil {
		return nil
	}

	addr := net.JoinHostPort(c.host, c.port)
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: c.dialTimeout},
		Config:    &tls.Config{ServerName: c.host},
	}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return &model.TransportError{
			Service: "imap",
			Err:     fmt.Errorf("connecting to %s: %w", addr, err),
		}
	}

	client := imapclient.New(conn, nil)
	if err := client.Login(c.username, c.password).Wait(); err != nil {
		_ = client.Close()
		return &model.AuthError{
			Service: "imap",
			Message: fmt.Sprintf(
				"authentication failed for %s: %v", c.username, err,
			),
		}
	}

	c.client = client
	return nil
}

// ListMailboxes returns the names of all selectable mailboxes.
func (c *IMAPClient) ListMailboxes(_ context.Context) ([]string, error) {
	if c.client == nil {
		return nil, errNotConnected
	}

	list, err := c.client.List("", "*", nil).Collect()
	if err != nil {
		return nil, fmt.Errorf("listing mailboxes: %w", err)
	}

	names := make([]string, 0, len(list))
	for _, mb := range list {
		if slices.Contains(mb.Attrs, imap.MailboxAttrNoSelect) {
			continue
		}
		names = append(names, mb.Mailbox)
	}
	return names, nil
}

// SelectReadOnly opens a mailbox with EXAMINE semantics so fetching
// never changes flags. It returns the number of messages in it.
func (c *IMAPClient) SelectReadOnly(
	_ context.Context, name string,
) (uint32, error) {
	if c.client == nil {
		return 0, errNotConnected
	}

	data, err := c.client.Select(name, &imap.SelectOptions{ReadOnly: true}).Wait()
	if err != nil {
		return 0, fmt.Errorf("selecting %s: %w", name, err)
	}
	return data.NumMessages, nil
}

// SearchSince returns the UIDs of messages received on or after the
// day of since. IMAP SINCE has day granularity.
func (c *IMAPClient) SearchSince(
	_ context.Context, since time.Time,
) ([]imap.UID, error) {
	if c.client == nil {
		return nil, errNotConnected
	}

	searchData, err := c.client.UIDSearch(&imap.SearchCriteria{
		Since: since,
	}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}
	return searchData.AllUIDs(), nil
}

// FetchRaw fetches the full RFC 822 content of each UID without setting
// \Seen. Per-message collection failures are reported in RawMessage.Err.
func (c *IMAPClient) FetchRaw(
	ctx context.Context, uids []imap.UID,
) ([]RawMessage, error) {
	if c.client == nil {
		return nil, errNotConnected
	}
	if len(uids) == 0 {
		return nil, nil
	}

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchCmd := c.client.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	})
	defer fetchCmd.Close()

	messages := make([]RawMessage, 0, len(uids))
	for {
		if err := ctx.Err(); err != nil {
			return messages, err
		}

		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			messages = append(messages, RawMessage{
				Err: fmt.Errorf("collecting message %d: %w", msg.SeqNum, err),
			})
			continue
		}

		messages = append(messages, RawMessage{
			UID:  buf.UID,
			Body: buf.FindBodySection(bodySection),
		})
	}

	if err := fetchCmd.Close(); err != nil {
		return messages, fmt.Errorf("fetching messages: %w", err)
	}

	return messages, nil
}

// Logout ends the session and closes the connection.
func (c *IMAPClient) Logout() error {
	if c.client == nil {
		return nil
	}
	err := c.client.Logout().Wait()
	_ = c.client.Close()
	c.client = nil
	return err
}

var errNotConnected = errors.New("imap client is not connected")
