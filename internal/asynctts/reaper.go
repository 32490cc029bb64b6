package asynctts

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Reaper deletes terminal rows older than N days on a daily cron schedule
// (§4.6 step 6), kept separate from the poll loop per §9's "never poll the
// same row twice" sharding note.
type Reaper struct {
	cron *cron.Cron
}

func NewReaper(store *Store, olderThan time.Duration, logger *zap.Logger) *Reaper {
	c := cron.New()
	_, _ = c.AddFunc("@daily", func() {
		n, err := store.Reap(olderThan)
		if err != nil {
			logger.Error("async tts reap failed", zap.Error(err))
			return
		}
		if n > 0 {
			logger.Info("async tts reaped terminal rows", zap.Int64("count", n))
		}
	})
	return &Reaper{cron: c}
}

func (r *Reaper) Start() { r.cron.Start() }
func (r *Reaper) Stop()  { r.cron.Stop() }
