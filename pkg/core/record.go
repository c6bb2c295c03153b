package core

import (
	"time"

	"github.com/google/uuid"
)

// ConvertedAnimation is a finished conversion handed to the storage backends.
type ConvertedAnimation struct {
	RunID       uuid.UUID       `json:"runId"`
	Source      string          `json:"source"`
	OutputPath  string          `json:"outputPath"`
	Document    []byte          `json:"-"`
	Stats       ConversionStats `json:"stats"`
	Warnings    []string        `json:"warnings,omitempty"`
	Duration    time.Duration   `json:"duration"`
	ConvertedAt time.Time       `json:"convertedAt"`
}

// ConversionFailure records a file that could not be converted.
type ConversionFailure struct {
	RunID    uuid.UUID `json:"runId"`
	Source   string    `json:"source"`
	Reason   string    `json:"reason"`
	FailedAt time.Time `json:"failedAt"`
}

// UploadMetadata describes a converted document sent to an asset server.
type UploadMetadata struct {
	RunID     uuid.UUID
	Source    string
	Bones     int
	Keyframes int
}
