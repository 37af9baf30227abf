package telegram

import (
	"errors"
	"fmt"
	"time"
)

// APIError is a structured Telegram Bot API error response.
type APIError struct {
	ErrorCode   int    // 400, 403, 429, ...
	Description string // Human-readable error description
	RetryAfter  int    // Seconds, only for 429
}

func (e *APIError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("telegram API error %d: %s (retry_after=%ds)", e.ErrorCode, e.Description, e.RetryAfter)
	}
	return fmt.Sprintf("telegram API error %d: %s", e.ErrorCode, e.Description)
}

// IsBotBlocked returns true if the user blocked the bot (403).
func IsBotBlocked(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode == 403
	}
	return false
}

// IsRetryAfter returns true for a 429 carrying retry_after.
func IsRetryAfter(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode == 429 && apiErr.RetryAfter > 0
	}
	return false
}

// RetryAfter returns the wait a 429 asks for, or zero.
func RetryAfter(err error) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode == 429 {
		return time.Duration(apiErr.RetryAfter) * time.Second
	}
	return 0
}

// IsUnauthorized reports a revoked or wrong bot token. Polling cannot recover from it.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode == 401 || apiErr.ErrorCode == 404
	}
	return false
}

// isMessageNotModified matches the 400 returned when an edit changes nothing.
func isMessageNotModified(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode == 400 && containsFold(apiErr.Description, "message is not modified")
	}
	return false
}
