// Package asynctts implements the long-text asynchronous TTS subsystem
// (§4.6): a gorm-backed SQLite task store, a background worker that performs
// segmented synthesis, a resty-based callback POSTer, and a cron-driven
// reaper for old terminal rows.
package asynctts

import "time"

// Status is the one-way lattice RUNNING -> {SUCCESS, FAILED} (§3 invariant).
type Status string

const (
	StatusRunning Status = "RUNNING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Task is the async_tts_tasks row (§3, §6.6).
type Task struct {
	TaskID         string `gorm:"primaryKey;size:32"`
	RequestID      string `gorm:"size:32;index"`
	Status         Status `gorm:"size:16;index"`
	Text           string `gorm:"size:5000"`
	Voice          string `gorm:"size:128"`
	SampleRate     int
	Format         string `gorm:"size:16"`
	EnableSubtitle bool
	EnableNotify   bool
	NotifyURL      string `gorm:"size:1024"`

	AudioAddress string `gorm:"size:1024"`
	Sentences    string `gorm:"type:text"` // JSON array of {text,begin_time,end_time}

	ErrorCode    int
	ErrorMessage string `gorm:"size:1024"`

	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// Sentence is one entry of Task.Sentences once decoded.
type Sentence struct {
	Text      string `json:"text"`
	BeginTime int64  `json:"begin_time"`
	EndTime   int64  `json:"end_time"`
}
