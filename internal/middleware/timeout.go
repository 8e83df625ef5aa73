package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"freightdesk/internal/model"
)

// Timeout bounds JSON endpoints. The whole response is buffered, so file
// transfer routes use StreamingTimeout instead.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	body, _ := json.Marshal(model.ErrorResponse("REQUEST_TIMEOUT", "Request timed out"))

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, string(body))
	}
}
