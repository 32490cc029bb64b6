package asynctts

import "github.com/alispeech/streaming-gateway/pkg/apierr"

// SuccessPayload builds the GET-response/callback shape for a SUCCESS task
// (§4.6: "Callback payload shapes are identical to the GET response shape
// for SUCCESS").
func SuccessPayload(t *Task) map[string]any {
	data := map[string]any{
		"task_id":       t.TaskID,
		"status":        string(t.Status),
		"audio_address": t.AudioAddress,
		"sentences":     decodeSentences(t.Sentences),
	}
	if t.EnableNotify {
		data["notify_custom"] = t.NotifyURL
	}
	return map[string]any{
		"status":        200,
		"error_code":    int(apierr.Success),
		"error_message": "SUCCESS",
		"request_id":    t.RequestID,
		"data":          data,
	}
}

// ErrorPayload builds the distinct FAILED callback/response shape.
func ErrorPayload(taskID, requestID, message string) map[string]any {
	return map[string]any{
		"status":        400,
		"error_code":    int(apierr.DefaultServerError),
		"error_message": message,
		"request_id":    requestID,
		"data": map[string]any{
			"task_id": taskID,
		},
	}
}
