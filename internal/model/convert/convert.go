// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"
	"time"

	"github.com/OCAP2/animconv/internal/model"
	"github.com/OCAP2/animconv/pkg/core"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// warningsToJSON converts a []string to datatypes.JSON for DB storage.
func warningsToJSON(warnings []string) datatypes.JSON {
	if len(warnings) == 0 {
		return datatypes.JSON("[]")
	}
	data, _ := json.Marshal(warnings)
	return datatypes.JSON(data)
}

// CoreToConversionRecord converts a converted animation to its GORM model.
// The document must be valid JSON; an empty document is stored as null.
func CoreToConversionRecord(a core.ConvertedAnimation) model.ConversionRecord {
	doc := datatypes.JSON("null")
	if len(a.Document) > 0 {
		doc = datatypes.JSON(a.Document)
	}

	return model.ConversionRecord{
		RunID:             a.RunID.String(),
		Source:            a.Source,
		OutputPath:        a.OutputPath,
		Bones:             a.Stats.Bones,
		Keyframes:         a.Stats.Keyframes,
		SkippedKeyframes:  a.Stats.SkippedKeyframes,
		SynthesizedFrames: a.Stats.SynthesizedFrames,
		DocumentBytes:     len(a.Document),
		DurationMs:        float32(a.Duration.Seconds() * 1000),
		Warnings:          warningsToJSON(a.Warnings),
		Document:          doc,
		ConvertedAt:       a.ConvertedAt,
	}
}

// ConversionRecordToCore converts a GORM record back to a core model.
// The document is returned as stored, which is compact JSON on Postgres.
func ConversionRecordToCore(r model.ConversionRecord) core.ConvertedAnimation {
	var warnings []string
	if len(r.Warnings) > 0 {
		_ = json.Unmarshal(r.Warnings, &warnings)
	}

	var doc []byte
	if len(r.Document) > 0 && string(r.Document) != "null" {
		doc = []byte(r.Document)
	}

	runID, _ := uuid.Parse(r.RunID)

	return core.ConvertedAnimation{
		RunID:      runID,
		Source:     r.Source,
		OutputPath: r.OutputPath,
		Document:   doc,
		Stats: core.ConversionStats{
			Bones:             r.Bones,
			Keyframes:         r.Keyframes,
			SkippedKeyframes:  r.SkippedKeyframes,
			SynthesizedFrames: r.SynthesizedFrames,
		},
		Warnings:    warnings,
		Duration:    time.Duration(float64(r.DurationMs) * float64(time.Millisecond)),
		ConvertedAt: r.ConvertedAt,
	}
}

// CoreToConversionFailure converts a failure to its GORM model.
func CoreToConversionFailure(f core.ConversionFailure) model.ConversionFailure {
	return model.ConversionFailure{
		RunID:    f.RunID.String(),
		Source:   f.Source,
		Reason:   f.Reason,
		FailedAt: f.FailedAt,
	}
}
