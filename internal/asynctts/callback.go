package asynctts

import (
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Callback POSTs the success/error envelope to a task's notify_url with a
// 30s timeout (§4.6 step 5); delivery failure never affects persisted
// state.
type Callback struct {
	client *resty.Client
	logger *zap.Logger
}

func NewCallback(timeout time.Duration, logger *zap.Logger) *Callback {
	return &Callback{client: resty.New().SetTimeout(timeout), logger: logger}
}

func (c *Callback) Deliver(url string, payload map[string]any) {
	resp, err := c.client.R().SetBody(payload).Post(url)
	if err != nil {
		c.logger.Warn("async tts callback delivery failed", zap.String("url", url), zap.Error(err))
		return
	}
	c.logger.Info("async tts callback delivered", zap.String("url", url), zap.Int("status", resp.StatusCode()))
}
