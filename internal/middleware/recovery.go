package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// PanicHandler is a function that handles panics and writes an error response
type PanicHandler func(w http.ResponseWriter, r *http.Request, err any)

// Recovery creates panic recovery middleware with a custom panic handler
//
// The panic handler is skipped once the connection has been hijacked for a
// websocket upgrade, since nothing can be written to it any more.
func Recovery(logger *slog.Logger, handler PanicHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped, ok := w.(*ResponseWriter)
			if !ok {
				wrapped = &ResponseWriter{ResponseWriter: w, status: http.StatusOK}
			}

			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						slog.Any("error", err),
						slog.String("stack", string(debug.Stack())),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
					)

					if wrapped.Status() == http.StatusSwitchingProtocols {
						return
					}
					handler(wrapped, r, err)
				}
			}()

			next.ServeHTTP(wrapped, r)
		})
	}
}

// DefaultPanicHandler returns a simple 500 Internal Server Error
func DefaultPanicHandler(w http.ResponseWriter, _ *http.Request, _ any) {
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// Guard runs fn and turns a panic into a logged error
//
// Long-lived connections use it around each inbound frame so one bad frame
// ends that session instead of the process.
func Guard(logger *slog.Logger, fn func(), attrs ...slog.Attr) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			args := []any{
				slog.Any("error", r),
				slog.String("stack", string(debug.Stack())),
			}
			for _, a := range attrs {
				args = append(args, a)
			}
			logger.Error("panic recovered", args...)
		}
	}()

	fn()
	return nil
}
