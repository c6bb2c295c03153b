package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/OCAP2/animconv/pkg/core"
	"github.com/OCAP2/animconv/pkg/streaming"
	"github.com/google/uuid"
)

// Config holds WebSocket backend configuration.
type Config struct {
	URL    string
	Secret string
	RunID  uuid.UUID
	Mode   string
}

// Backend pushes every converted animation to a preview server.
type Backend struct {
	conn *connection
	cfg  Config
}

// New creates a new WebSocket storage backend.
func New(cfg Config, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		conn: newConnection(logger.With("component", "preview")),
		cfg:  cfg,
	}
}

// Init connects and announces the session. The server must ack it.
func (b *Backend) Init() error {
	if err := b.conn.dial(b.cfg.URL, b.cfg.Secret); err != nil {
		return err
	}

	hostname, _ := os.Hostname()
	data, err := marshalEnvelope(streaming.TypeStartSession, streaming.StartSessionPayload{
		RunID:     b.cfg.RunID,
		Mode:      b.cfg.Mode,
		Hostname:  hostname,
		StartedAt: time.Now(),
	})
	if err != nil {
		return err
	}

	b.conn.setSession(data)
	if err := b.conn.sendAndWait(data, streaming.TypeStartSession, ackTimeout); err != nil {
		_ = b.conn.close()
		return err
	}
	return nil
}

// Close ends the session and disconnects.
func (b *Backend) Close() error {
	err := b.sendEnvelopeAndWait(streaming.TypeEndSession, map[string]uuid.UUID{"runId": b.cfg.RunID})
	b.conn.setSession(nil)
	if cerr := b.conn.close(); cerr != nil {
		return cerr
	}
	return err
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	env := streaming.Envelope{Type: msgType, Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// sendEnvelope marshals the payload into an Envelope and pushes it
// to the write loop (fire-and-forget).
func (b *Backend) sendEnvelope(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	b.conn.send(data)
	return nil
}

func (b *Backend) sendEnvelopeAndWait(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	return b.conn.sendAndWait(data, msgType, ackTimeout)
}

func (b *Backend) StoreAnimation(a *core.ConvertedAnimation) error {
	return b.sendEnvelope(streaming.TypeAnimation, streaming.NewAnimationPayload(a))
}

func (b *Backend) RecordFailure(f *core.ConversionFailure) error {
	return b.sendEnvelope(streaming.TypeConversionFailed, f)
}
