// Package apierr centralizes the status-code taxonomy (§6.4) and typed error
// kinds (§7) shared by the WS protocol and the HTTP handlers. The teacher
// sprinkles fmt.Errorf("...: %w") wrapping without a central error type, but
// the numeric wire taxonomy here is authoritative across both transports, so
// it gets the one centralized type this domain actually needs.
package apierr

import "fmt"

// Code is a wire status code from §6.4.
type Code int

const (
	Success                   Code = 20000000
	DefaultClientError        Code = 40000000
	AuthenticationFailed      Code = 40000001
	CodeInvalidMessage        Code = 40000002
	CodeInvalidParameter      Code = 40000003
	IdleTimeout               Code = 40000004
	TooManyRequests           Code = 40000005
	CodeUnsupportedSampleRate Code = 41010101
	DefaultServerError        Code = 50000000
	InternalInferenceError    Code = 50000001
)

// Kind classifies an error for HTTP-status mapping and logging, independent
// of the numeric wire code.
type Kind string

const (
	KindAuthentication        Kind = "authentication"
	KindInvalidMessage        Kind = "invalid_message"
	KindInvalidParameter      Kind = "invalid_parameter"
	KindUnsupportedSampleRate Kind = "unsupported_sample_rate"
	KindAudioTooLarge         Kind = "audio_too_large"
	KindAudioDownloadFailed   Kind = "audio_download_failed"
	KindUnsupportedAudio      Kind = "unsupported_audio_format"
	KindEngineNotLoaded       Kind = "engine_not_loaded"
	KindInferenceFailure      Kind = "inference_failure"
	KindTaskNotFound          Kind = "task_not_found"
	KindInternal              Kind = "internal"
)

// APIError is the one error type this gateway returns across both the HTTP
// and WS surfaces; Code and HTTPStatus travel together so a handler never
// has to re-derive one from the other.
type APIError struct {
	Kind       Kind
	Code       Code
	Message    string
	HTTPStatus int
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *APIError) Unwrap() error { return e.Err }

func newErr(kind Kind, code Code, httpStatus int, message string) *APIError {
	return &APIError{Kind: kind, Code: code, Message: message, HTTPStatus: httpStatus}
}

func Authentication(msg string) *APIError {
	return newErr(KindAuthentication, AuthenticationFailed, 400, msg)
}

func InvalidMessage(msg string) *APIError {
	return newErr(KindInvalidMessage, CodeInvalidMessage, 400, msg)
}

func InvalidParameter(msg string) *APIError {
	return newErr(KindInvalidParameter, CodeInvalidParameter, 400, msg)
}

func UnsupportedSampleRate(msg string) *APIError {
	return newErr(KindUnsupportedSampleRate, CodeUnsupportedSampleRate, 400, msg)
}

func AudioTooLarge(msg string) *APIError {
	return newErr(KindAudioTooLarge, DefaultClientError, 400, msg)
}

func AudioDownloadFailed(msg string) *APIError {
	return newErr(KindAudioDownloadFailed, DefaultClientError, 400, msg)
}

func UnsupportedAudioFormat(msg string) *APIError {
	return newErr(KindUnsupportedAudio, DefaultClientError, 400, msg)
}

func EngineNotLoaded(msg string) *APIError {
	return newErr(KindEngineNotLoaded, DefaultServerError, 500, msg)
}

func InferenceFailure(msg string, cause error) *APIError {
	e := newErr(KindInferenceFailure, InternalInferenceError, 500, msg)
	e.Err = cause
	return e
}

func TaskNotFound(msg string) *APIError {
	return newErr(KindTaskNotFound, DefaultClientError, 400, msg)
}

func Internal(msg string, cause error) *APIError {
	e := newErr(KindInternal, DefaultServerError, 500, msg)
	e.Err = cause
	return e
}

// As extracts an *APIError from any error, wrapping unknown errors as
// Internal so every handler can rely on a uniform envelope shape.
func As(err error) *APIError {
	if err == nil {
		return nil
	}
	if ae, ok := err.(*APIError); ok {
		return ae
	}
	return Internal(err.Error(), err)
}
