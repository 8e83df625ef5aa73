package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// TransferTimeout bounds document uploads and downloads without buffering
// the body the way http.TimeoutHandler does. maxDuration caps the whole
// transfer; idle caps the gap between two writes.
func TransferTimeout(maxDuration time.Duration, idle time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), maxDuration)
			defer cancel()

			rc := http.NewResponseController(w)
			deadline := time.Now().Add(maxDuration)
			_ = rc.SetWriteDeadline(deadline)
			_ = rc.SetReadDeadline(deadline)

			tw := &transferWriter{ResponseWriter: w, rc: rc, idle: idle, cancel: cancel}
			tw.touch()
			defer tw.stop()

			next.ServeHTTP(tw, r.WithContext(ctx))
		})
	}
}

type transferWriter struct {
	http.ResponseWriter
	rc     *http.ResponseController
	idle   time.Duration
	cancel context.CancelFunc

	mu    sync.Mutex
	timer *time.Timer
}

func (tw *transferWriter) touch() {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.timer != nil {
		tw.timer.Stop()
	}
	tw.timer = time.AfterFunc(tw.idle, func() {
		_ = tw.rc.SetWriteDeadline(time.Now())
		tw.cancel()
	})
}

func (tw *transferWriter) stop() {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.timer != nil {
		tw.timer.Stop()
	}
}

func (tw *transferWriter) Write(b []byte) (int, error) {
	tw.touch()
	return tw.ResponseWriter.Write(b)
}

func (tw *transferWriter) Unwrap() http.ResponseWriter {
	return tw.ResponseWriter
}

func (tw *transferWriter) Flush() {
	if f, ok := tw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
