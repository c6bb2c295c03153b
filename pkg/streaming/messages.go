// Package streaming defines the messages pushed to a live preview server.
package streaming

import (
	"encoding/json"
	"time"

	"github.com/OCAP2/animconv/pkg/core"
	"github.com/google/uuid"
)

// Message type constants matching the preview protocol.
const (
	TypeStartSession     = "start_session"
	TypeEndSession       = "end_session"
	TypeAnimation        = "animation"
	TypeConversionFailed = "conversion_failed"
	TypeAck              = "ack"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// StartSessionPayload announces a run. It is replayed after a reconnect.
type StartSessionPayload struct {
	RunID     uuid.UUID `json:"runId"`
	Mode      string    `json:"mode"`
	Hostname  string    `json:"hostname"`
	StartedAt time.Time `json:"startedAt"`
}

// AnimationPayload carries a converted document so the server can render it.
type AnimationPayload struct {
	RunID      uuid.UUID            `json:"runId"`
	Source     string               `json:"source"`
	OutputPath string               `json:"outputPath"`
	Stats      core.ConversionStats `json:"stats"`
	Warnings   []string             `json:"warnings,omitempty"`
	Document   json.RawMessage      `json:"document"`
}

// NewAnimationPayload builds the preview message for a conversion.
// An empty document is sent as null.
func NewAnimationPayload(a *core.ConvertedAnimation) AnimationPayload {
	doc := json.RawMessage("null")
	if len(a.Document) > 0 {
		doc = json.RawMessage(a.Document)
	}
	return AnimationPayload{
		RunID:      a.RunID,
		Source:     a.Source,
		OutputPath: a.OutputPath,
		Stats:      a.Stats,
		Warnings:   a.Warnings,
		Document:   doc,
	}
}
