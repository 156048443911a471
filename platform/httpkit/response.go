// Package httpkit holds the gin helpers every handler shares: JSON
// responses, error mapping and request middleware.
package httpkit

import (
	"net/http"
	"strconv"

	"address_lookup_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

// retryAfterSeconds is advertised on every 429.
const retryAfterSeconds = 1

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"requestId,omitempty"`
	Details   any    `json:"details,omitempty"`
}

func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

func OK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// Error writes an ErrorResponse tagged with the request ID.
func Error(c *gin.Context, status int, message string, details any) {
	writeError(c, status, ErrorResponse{Error: message, Details: details})
}

// HandleError writes err and reports whether there was one. Classified
// errors keep their message and kind; anything else becomes a bare 500 so
// internal detail never reaches the client.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	ae, ok := apperr.As(err)
	if !ok {
		writeError(c, http.StatusInternalServerError, ErrorResponse{
			Error: "internal error",
			Code:  apperr.KindInternal.String(),
		})
		return true
	}

	writeError(c, ae.HTTPStatus(), ErrorResponse{
		Error:   ae.Message,
		Code:    ae.Kind.String(),
		Details: ae.Details,
	})
	return true
}

func writeError(c *gin.Context, status int, body ErrorResponse) {
	body.RequestID = c.Writer.Header().Get(RequestIDHeader)
	if status == http.StatusTooManyRequests {
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
	}
	c.AbortWithStatusJSON(status, body)
}
