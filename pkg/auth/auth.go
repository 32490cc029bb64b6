// Package auth validates the Aliyun-compatible token/appkey pair carried by
// HTTP headers, query parameters, or a WebSocket's connect-time parameters
// (§6.3). Both checks are optional: an unset expected value disables that
// check, matching the original's permissive default so the gateway boots
// without any credentials configured.
package auth

import (
	"strings"

	"github.com/alispeech/streaming-gateway/pkg/apierr"
)

// Validator holds the configured expected token/appkey.
type Validator struct {
	Token  string
	AppKey string
}

func New(token, appKey string) *Validator {
	return &Validator{Token: token, AppKey: appKey}
}

// CheckToken validates a bearer/X-NLS-Token value. An empty Validator.Token
// disables the check entirely.
func (v *Validator) CheckToken(presented string) error {
	if v.Token == "" {
		return nil
	}
	if presented == "" {
		return apierr.Authentication("missing X-NLS-Token")
	}
	if presented != v.Token {
		return apierr.Authentication("invalid token")
	}
	return nil
}

// CheckAppKey validates the appkey field/query param. An empty
// Validator.AppKey disables the check entirely.
func (v *Validator) CheckAppKey(presented string) error {
	if v.AppKey == "" {
		return nil
	}
	if presented == "" {
		return apierr.Authentication("missing appkey")
	}
	if presented != v.AppKey {
		return apierr.Authentication("invalid appkey")
	}
	return nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value, used by the OpenAI-compatible endpoint.
func BearerToken(authHeader string) string {
	const prefix = "Bearer "
	if strings.HasPrefix(authHeader, prefix) {
		return strings.TrimPrefix(authHeader, prefix)
	}
	return ""
}

// Mask keeps the first and last 4 characters of a secret for logging.
func Mask(s string) string {
	if len(s) <= 8 {
		if s == "" {
			return ""
		}
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}
