package asynctts

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/alispeech/streaming-gateway/pkg/apierr"
	"github.com/alispeech/streaming-gateway/pkg/engine"
	"github.com/alispeech/streaming-gateway/pkg/executor"
	"github.com/alispeech/streaming-gateway/pkg/protocol"
	"github.com/alispeech/streaming-gateway/pkg/voiceregistry"
)

// Service is the HTTP-facing façade over the store, worker, and reaper: the
// public Submit/Query operations of §4.6.
type Service struct {
	store  *Store
	worker *Worker
	reaper *Reaper
	cache  *lru.Cache[string, *Task]
	logger *zap.Logger
}

// NewService wires the store, segmented synthesizer, callback poster,
// worker, and reaper together, and starts the background worker and reaper
// immediately — starting it lazily on first submit would only complicate
// the idempotency story for no real benefit, since the loop is a no-op
// until a RUNNING row exists.
func NewService(dsn string, pool *engine.Pool, ex *executor.Executor, voices *voiceregistry.Registry, tempDir string, callbackTimeout, pollInterval, reapAfter time.Duration, logger *zap.Logger) (*Service, error) {
	store, err := OpenStore(dsn)
	if err != nil {
		return nil, fmt.Errorf("async tts: open store: %w", err)
	}
	synth := NewSynthesizer(pool, ex, voices, tempDir)
	cb := NewCallback(callbackTimeout, logger)
	worker := NewWorker(store, synth, cb, pollInterval, logger)
	reaper := NewReaper(store, reapAfter, logger)
	cache, _ := lru.New[string, *Task](256)

	svc := &Service{store: store, worker: worker, reaper: reaper, cache: cache, logger: logger}
	worker.Start(context.Background())
	reaper.Start()
	return svc, nil
}

func (s *Service) Shutdown() {
	s.worker.Stop()
	s.reaper.Stop()
}

// SubmitRequest is the /rest/v1/tts/async POST payload's fields (§4.6 step
// 1).
type SubmitRequest struct {
	Text           string
	Voice          string
	SampleRate     int
	Format         string
	EnableSubtitle bool
	EnableNotify   bool
	NotifyURL      string
}

// Submit validates and inserts a new task row, returning its task/request
// ids.
func (s *Service) Submit(req SubmitRequest) (taskID, requestID string, err error) {
	if n := utf8.RuneCountInString(req.Text); n == 0 || n > 5000 {
		return "", "", apierr.InvalidParameter("text must be 1..5000 characters")
	}
	if req.Voice == "" {
		return "", "", apierr.InvalidParameter("voice is required")
	}
	if req.EnableNotify {
		if !strings.HasPrefix(req.NotifyURL, "http://") && !strings.HasPrefix(req.NotifyURL, "https://") {
			return "", "", apierr.InvalidParameter("notify_url must be http(s) when notifications are enabled")
		}
	}
	requestID = protocol.NewID()
	taskID = protocol.NewID()
	if req.SampleRate == 0 {
		req.SampleRate = 16000
	}
	if req.Format == "" {
		req.Format = "WAV"
	}
	task := &Task{
		TaskID:         taskID,
		RequestID:      requestID,
		Text:           req.Text,
		Voice:          req.Voice,
		SampleRate:     req.SampleRate,
		Format:         req.Format,
		EnableSubtitle: req.EnableSubtitle,
		EnableNotify:   req.EnableNotify,
		NotifyURL:      req.NotifyURL,
	}
	if err := s.store.Create(task); err != nil {
		return "", "", apierr.Internal("failed to create async tts task", err)
	}
	return taskID, requestID, nil
}

// Query fetches a task, preferring the LRU cache for tasks already observed
// in a terminal state, so repeated polls of a finished task don't hit
// SQLite. RUNNING tasks are never cached and are read from the store on
// every poll.
func (s *Service) Query(taskID string) (*Task, error) {
	if cached, ok := s.cache.Get(taskID); ok {
		return cached, nil
	}
	t, err := s.store.Get(taskID)
	if err != nil {
		return nil, apierr.Internal("failed to query async tts task", err)
	}
	if t == nil {
		return nil, apierr.TaskNotFound("task not found")
	}
	if t.Status != StatusRunning {
		s.cache.Add(taskID, t)
	}
	return t, nil
}
