package service

import (
	"errors"
	"strings"

	"address_lookup_backend/platform/apperr"
)

// User-facing messages.
const (
	MsgRateLimited       = "Too many requests. Please wait before trying again."
	MsgSearchFailed      = "An unexpected error occurred during address search."
	MsgResolveFailed     = "Address lookup service temporarily unavailable. Please contact your administrator or enter the address manually"
	MsgSaveFailed        = "Failed to save address details."
	MsgSaveFailedPrefix  = "Failed to save address details: "
	MsgSaveSucceeded     = "Address updated successfully"
	MsgValidationFailed  = "Please update the invalid form entries and try again."
	rateLimitStatus      = 429
	rateLimitStatusToken = "429"
)

type statusCoder interface {
	StatusCode() int
}

type httpStatuser interface {
	HTTPStatus() int
}

// IsRateLimited reports whether err signals that the remote service is
// throttling the caller. A structured status anywhere in the chain counts, as
// does the text "429" in the message.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}

	var sc statusCoder
	if errors.As(err, &sc) && sc.StatusCode() == rateLimitStatus {
		return true
	}
	var hs httpStatuser
	if errors.As(err, &hs) && hs.HTTPStatus() == rateLimitStatus {
		return true
	}
	return strings.Contains(err.Error(), rateLimitStatusToken)
}

func searchFailureMessage(err error) string {
	if IsRateLimited(err) {
		return MsgRateLimited
	}
	return MsgSearchFailed
}

func resolveFailureMessage(err error) string {
	if IsRateLimited(err) {
		return MsgRateLimited
	}
	return MsgResolveFailed
}

// saveFailureDetail builds the notification text for a failed update,
// preferring the store's own message over the wrapped chain.
func saveFailureDetail(err error) string {
	return MsgSaveFailedPrefix + apperr.UserMessage(err)
}
