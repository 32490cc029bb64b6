package asynctts

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Store wraps the gorm handle to the embedded relational store (§6.6).
type Store struct {
	db *gorm.DB
}

// OpenStore opens (and migrates) the sqlite-backed task table. Only sqlite
// is wired today; dsn follows gorm's sqlite driver conventions.
func OpenStore(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Task{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Create inserts a new RUNNING row (§4.6 step 3).
func (s *Store) Create(t *Task) error {
	t.Status = StatusRunning
	t.ErrorMessage = "RUNNING"
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	return s.db.Create(t).Error
}

// Get fetches a task by id.
func (s *Store) Get(taskID string) (*Task, error) {
	var t Task
	if err := s.db.First(&t, "task_id = ?", taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// ListRunning returns up to limit RUNNING tasks ordered by created_at asc
// (§4.6 step 1).
func (s *Store) ListRunning(limit int) ([]Task, error) {
	var tasks []Task
	err := s.db.Where("status = ?", StatusRunning).Order("created_at ASC").Limit(limit).Find(&tasks).Error
	return tasks, err
}

// CompleteSuccess persists a terminal SUCCESS row; terminal states never
// revert, so this is a no-op once the row is already terminal.
func (s *Store) CompleteSuccess(taskID, audioAddress string, sentences []Sentence) error {
	body, err := json.Marshal(sentences)
	if err != nil {
		return err
	}
	now := time.Now()
	return s.db.Model(&Task{}).
		Where("task_id = ? AND status = ?", taskID, StatusRunning).
		Updates(map[string]any{
			"status":        StatusSuccess,
			"audio_address": audioAddress,
			"sentences":     string(body),
			"error_code":    0,
			"error_message": "SUCCESS",
			"completed_at":  now,
			"updated_at":    now,
		}).Error
}

// CompleteFailure persists a terminal FAILED row (§4.6 step 4).
func (s *Store) CompleteFailure(taskID string, errCode int, message string) error {
	now := time.Now()
	return s.db.Model(&Task{}).
		Where("task_id = ? AND status = ?", taskID, StatusRunning).
		Updates(map[string]any{
			"status":        StatusFailed,
			"error_code":    errCode,
			"error_message": message,
			"completed_at":  now,
			"updated_at":    now,
		}).Error
}

// Reap deletes terminal rows older than olderThan (§4.6 step 6).
func (s *Store) Reap(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res := s.db.Where("created_at < ? AND status IN ?", cutoff, []Status{StatusSuccess, StatusFailed}).Delete(&Task{})
	return res.RowsAffected, res.Error
}

func decodeSentences(raw string) []Sentence {
	if raw == "" {
		return nil
	}
	var out []Sentence
	_ = json.Unmarshal([]byte(raw), &out)
	return out
}
