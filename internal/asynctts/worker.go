package asynctts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alispeech/streaming-gateway/pkg/apierr"
)

// Worker is the single background loop per process (§4.6, §9): poll up to 5
// RUNNING tasks, synthesize, persist terminal state, optionally notify.
type Worker struct {
	store   *Store
	synth   *Synthesizer
	cb      *Callback
	logger  *zap.Logger
	poll    time.Duration

	startOnce sync.Once
	stopCh    chan struct{}
}

func NewWorker(store *Store, synth *Synthesizer, cb *Callback, poll time.Duration, logger *zap.Logger) *Worker {
	return &Worker{store: store, synth: synth, cb: cb, poll: poll, logger: logger, stopCh: make(chan struct{})}
}

// Start launches the loop exactly once (idempotent, process-singleton per
// §4.6 step 4).
func (w *Worker) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		go w.run(ctx)
	})
}

func (w *Worker) Stop() {
	close(w.stopCh)
}

func (w *Worker) run(ctx context.Context) {
	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		sleep := w.poll
		if err := w.tick(ctx); err != nil {
			w.logger.Error("async tts worker iteration failed", zap.Error(err))
			sleep = 5 * time.Second
		}

		select {
		case <-time.After(sleep):
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *Worker) tick(ctx context.Context) error {
	tasks, err := w.store.ListRunning(5)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		w.process(ctx, t)
	}
	return nil
}

func (w *Worker) process(ctx context.Context, t Task) {
	audioAddress, sentences, err := w.synth.Synthesize(ctx, t.TaskID, t.Text, t.Voice, t.SampleRate, 50, 0, t.Format)
	if err != nil {
		w.logger.Error("async tts synthesis failed", zap.String("task_id", t.TaskID), zap.Error(err))
		_ = w.store.CompleteFailure(t.TaskID, int(apierr.DefaultServerError), err.Error())
		if t.EnableNotify && t.NotifyURL != "" {
			w.cb.Deliver(t.NotifyURL, ErrorPayload(t.TaskID, t.RequestID, err.Error()))
		}
		return
	}
	if err := w.store.CompleteSuccess(t.TaskID, audioAddress, sentences); err != nil {
		w.logger.Error("async tts persist failed", zap.String("task_id", t.TaskID), zap.Error(err))
		return
	}
	if t.EnableNotify && t.NotifyURL != "" {
		updated, _ := w.store.Get(t.TaskID)
		if updated != nil {
			w.cb.Deliver(t.NotifyURL, SuccessPayload(updated))
		}
	}
}
