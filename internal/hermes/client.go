package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	// SubjectConversationImported is published once per stored conversation.
	SubjectConversationImported = "chatnote.conversation.imported"
	// SubjectImportRequested carries exports pushed by other services.
	SubjectImportRequested = "chatnote.import.requested"
)

// ImportRequestedEvent asks chatnote to normalize and store an export.
type ImportRequestedEvent struct {
	Content  string   `json:"content"`
	Filename string   `json:"filename,omitempty"`
	Title    string   `json:"title,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// ImportedEvent announces a conversation that has been normalized and stored.
type ImportedEvent struct {
	ConversationID string    `json:"conversation_id"`
	Title          string    `json:"title"`
	Source         string    `json:"source"`
	Tags           []string  `json:"tags"`
	ContentLen     int       `json:"content_len"`
	Filename       string    `json:"filename,omitempty"`
	ImportedAt     time.Time `json:"imported_at"`
}

type Client struct {
	conn   *nats.Conn
	subs   []*nats.Subscription
	logger *slog.Logger
}

func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.Name("chatnote"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Client{conn: nc, logger: logger}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

// PublishImported announces a stored conversation.
func (c *Client) PublishImported(_ context.Context, evt ImportedEvent) error {
	if err := c.Publish(SubjectConversationImported, evt); err != nil {
		return fmt.Errorf("publish %s: %w", SubjectConversationImported, err)
	}
	return nil
}

func (c *Client) Subscribe(subject string, handler func(subject string, data []byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.logger.Info("subscribed", "subject", subject)
	return nil
}

func (c *Client) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	_ = c.conn.Drain()
}
