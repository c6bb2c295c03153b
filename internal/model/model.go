package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&ConversionRun{},
	&ConversionRecord{},
	&ConversionFailure{},
}

// ConversionRun groups the files handled by one invocation or watch session.
type ConversionRun struct {
	gorm.Model
	RunID     string    `json:"runId" gorm:"size:36;uniqueIndex"`
	StartedAt time.Time `json:"startedAt" gorm:"index:idx_run_started_at"`
	Hostname  string    `json:"hostname" gorm:"size:255"`
	Mode      string    `json:"mode" gorm:"size:16"` // batch or watch
}

func (*ConversionRun) TableName() string {
	return "conversion_runs"
}

// ConversionRecord is one converted animation.
// The encoded document is kept so an earlier output can be restored.
type ConversionRecord struct {
	gorm.Model
	RunID             string         `json:"runId" gorm:"size:36;index:idx_record_run_id"`
	Source            string         `json:"source" gorm:"size:1024;index:idx_record_source"`
	OutputPath        string         `json:"outputPath" gorm:"size:1024"`
	Bones             int            `json:"bones"`
	Keyframes         int            `json:"keyframes"`
	SkippedKeyframes  int            `json:"skippedKeyframes"`
	SynthesizedFrames int            `json:"synthesizedFrames"`
	DocumentBytes     int            `json:"documentBytes"`
	DurationMs        float32        `json:"durationMs"`
	Warnings          datatypes.JSON `json:"warnings"`
	Document          datatypes.JSON `json:"document"`
	ConvertedAt       time.Time      `json:"convertedAt" gorm:"index:idx_record_converted_at"`
}

func (*ConversionRecord) TableName() string {
	return "conversion_records"
}

// ConversionFailure is a file that could not be converted.
type ConversionFailure struct {
	gorm.Model
	RunID    string    `json:"runId" gorm:"size:36;index:idx_failure_run_id"`
	Source   string    `json:"source" gorm:"size:1024"`
	Reason   string    `json:"reason" gorm:"size:2000"`
	FailedAt time.Time `json:"failedAt"`
}

func (*ConversionFailure) TableName() string {
	return "conversion_failures"
}
