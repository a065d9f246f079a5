// Package events publishes chat lifecycle events to NATS so external
// tooling can observe the conversation without touching the database.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/pymentor/agent-server/pkg/logger"
)

// Subjects for chat lifecycle events.
const (
	SubjectMessageSaved  = "chat.message.saved"
	SubjectTurnCompleted = "chat.turn.completed"
	SubjectTurnFailed    = "chat.turn.failed"
)

// MessageSaved is emitted after a message is persisted.
type MessageSaved struct {
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Chars     int       `json:"chars"`
	Timestamp time.Time `json:"timestamp"`
}

// TurnCompleted is emitted after a full user/assistant exchange.
type TurnCompleted struct {
	SessionID  string        `json:"session_id"`
	Mode       string        `json:"mode"`
	Duration   time.Duration `json:"duration_ns"`
	OutputSize int           `json:"output_size"`
}

// TurnFailed is emitted when the upstream model call fails mid-turn.
type TurnFailed struct {
	SessionID string `json:"session_id"`
	Mode      string `json:"mode"`
	Reason    string `json:"reason"`
}

// Publisher emits chat events. Implementations must be safe for
// concurrent use and must never block a chat turn on delivery.
type Publisher interface {
	Publish(ctx context.Context, subject string, event any) error
	Close()
}

// Noop is a Publisher that discards every event. It serves deployments
// without a NATS server configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, any) error { return nil }
func (Noop) Close()                                     {}

// Config holds NATS connection configuration.
type Config struct {
	URL      string
	CAFile   string
	CertFile string
	KeyFile  string
	Token    string
}

// NATSPublisher publishes events over a NATS connection.
type NATSPublisher struct {
	conn *nats.Conn
	log  *logger.Logger
}

// Connect establishes a connection to the NATS server and returns a
// publisher bound to it.
func Connect(cfg Config, log *logger.Logger) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.ReconnectBufSize(8 * 1024 * 1024),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error("nats async error", zap.Error(err))
		}),
	}

	if cfg.CAFile != "" && cfg.CertFile != "" && cfg.KeyFile != "" {
		opts = append(opts, nats.RootCAs(cfg.CAFile), nats.ClientCert(cfg.CertFile, cfg.KeyFile))
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	return &NATSPublisher{conn: nc, log: log}, nil
}

// Publish marshals the event as JSON and fires it at the subject.
// Delivery is best effort.
func (p *NATSPublisher) Publish(_ context.Context, subject string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event for %s: %w", subject, err)
	}
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Close drains and closes the NATS connection.
func (p *NATSPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

// IsConnected reports whether the publisher has a live connection.
func (p *NATSPublisher) IsConnected() bool {
	return p.conn != nil && p.conn.IsConnected()
}
