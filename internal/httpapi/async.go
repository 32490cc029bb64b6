package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alispeech/streaming-gateway/internal/asynctts"
	"github.com/alispeech/streaming-gateway/pkg/apierr"
	"github.com/alispeech/streaming-gateway/pkg/protocol"
)

type asyncSubmitEnvelope struct {
	Header struct {
		Appkey string `json:"appkey"`
	} `json:"header"`
	Payload struct {
		Text           string `json:"text"`
		Voice          string `json:"voice"`
		SampleRate     int    `json:"sample_rate"`
		Format         string `json:"format"`
		EnableSubtitle bool   `json:"enable_subtitle"`
		EnableNotify   bool   `json:"enable_notify"`
		NotifyURL      string `json:"notify_url"`
	} `json:"payload"`
}

// handleAsyncSubmit implements §4.6 step 1-5: validate, insert a RUNNING
// row, and acknowledge immediately — the background worker performs the
// synthesis out of band.
func (h *Handlers) handleAsyncSubmit(c *gin.Context) {
	if err := h.Validator.CheckToken(c.GetHeader("X-NLS-Token")); err != nil {
		asyncErrorEnvelope(c, "", apierr.As(err))
		return
	}

	var env asyncSubmitEnvelope
	if err := c.ShouldBindJSON(&env); err != nil {
		asyncErrorEnvelope(c, "", apierr.InvalidMessage("malformed request body"))
		return
	}
	if err := h.Validator.CheckAppKey(env.Header.Appkey); err != nil {
		asyncErrorEnvelope(c, "", apierr.As(err))
		return
	}

	taskID, requestID, err := h.Async.Submit(asynctts.SubmitRequest{
		Text:           env.Payload.Text,
		Voice:          env.Payload.Voice,
		SampleRate:     env.Payload.SampleRate,
		Format:         env.Payload.Format,
		EnableSubtitle: env.Payload.EnableSubtitle,
		EnableNotify:   env.Payload.EnableNotify,
		NotifyURL:      env.Payload.NotifyURL,
	})
	if err != nil {
		asyncErrorEnvelope(c, requestID, apierr.As(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        http.StatusOK,
		"error_code":    int(apierr.Success),
		"error_message": "SUCCESS",
		"request_id":    requestID,
		"data":          gin.H{"task_id": taskID},
	})
}

// handleAsyncQuery implements §4.6's GET response mapping, echoing
// notify_url as notify_custom when notifications were enabled.
func (h *Handlers) handleAsyncQuery(c *gin.Context) {
	if err := h.Validator.CheckToken(c.Query("token")); err != nil {
		asyncErrorEnvelope(c, "", apierr.As(err))
		return
	}
	if err := h.Validator.CheckAppKey(c.Query("appkey")); err != nil {
		asyncErrorEnvelope(c, "", apierr.As(err))
		return
	}

	taskID := c.Query("task_id")
	if taskID == "" {
		asyncErrorEnvelope(c, "", apierr.InvalidParameter("task_id is required"))
		return
	}
	task, err := h.Async.Query(taskID)
	if err != nil {
		asyncErrorEnvelope(c, "", apierr.As(err))
		return
	}

	data := gin.H{
		"task_id": task.TaskID,
		"status":  string(task.Status),
	}
	if task.AudioAddress != "" {
		data["audio_address"] = task.AudioAddress
	}
	if task.Sentences != "" {
		var sentences []asynctts.Sentence
		if json.Unmarshal([]byte(task.Sentences), &sentences) == nil {
			data["sentences"] = sentences
		}
	}
	if task.EnableNotify {
		data["notify_custom"] = task.NotifyURL
	}
	if task.Status == asynctts.StatusFailed {
		data["error_code"] = task.ErrorCode
		data["error_message"] = task.ErrorMessage
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        http.StatusOK,
		"error_code":    int(apierr.Success),
		"error_message": "SUCCESS",
		"request_id":    task.RequestID,
		"data":          data,
	})
}

func asyncErrorEnvelope(c *gin.Context, requestID string, err *apierr.APIError) {
	if requestID == "" {
		requestID = protocol.NewID()
	}
	c.JSON(err.HTTPStatus, gin.H{
		"status":        err.HTTPStatus,
		"error_code":    int(err.Code),
		"error_message": err.Message,
		"request_id":    requestID,
	})
}
