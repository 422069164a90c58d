package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/elyseproject/elyse/internal/config"
	"github.com/elyseproject/elyse/internal/logfields"
	"github.com/elyseproject/elyse/internal/pipeline"
)

// DefaultSubject is the subject prefix when the config leaves it empty.
const DefaultSubject = "elyse.builds"

const publishTimeout = 5 * time.Second

// Client publishes build reports to NATS. Publication is best effort; the
// caller logs and continues when it fails.
type Client struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
}

// NewClient connects to the configured NATS server. A JetStream stream
// matching "<subject>.>" must exist for reports to be retained.
func NewClient(cfg config.NotifyConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("notifications are disabled")
	}

	conn, err := nats.Connect(cfg.URL, nats.Name("elyse"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	c := &Client{conn: conn, js: js, subject: cfg.Subject}
	if c.subject == "" {
		c.subject = DefaultSubject
	}

	slog.Info("build notifier connected",
		slog.String("url", cfg.URL),
		slog.String("subject", c.subject))

	return c, nil
}

// PublishReport publishes the sanitized report JSON to "<subject>.<outcome>".
func (c *Client) PublishReport(ctx context.Context, rep *pipeline.BuildReport) error {
	if c == nil {
		return nil
	}

	data, err := json.Marshal(rep.SanitizedCopy())
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	subject := subjectFor(c.subject, rep.Outcome)
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if _, err := c.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("publish report: %w", err)
	}

	slog.Debug("published build report",
		logfields.BuildID(rep.BuildID),
		logfields.Outcome(string(rep.Outcome)),
		slog.String("subject", subject))

	return nil
}

func subjectFor(base string, outcome pipeline.BuildOutcome) string {
	if base == "" {
		base = DefaultSubject
	}
	if outcome == "" {
		outcome = pipeline.OutcomeSuccess
	}
	return fmt.Sprintf("%s.%s", base, outcome)
}

// Close closes the NATS connection.
func (c *Client) Close() error {
	if c != nil && c.conn != nil {
		c.conn.Close()
	}
	return nil
}
