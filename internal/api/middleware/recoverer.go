package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Recoverer converts panics into a JSON 500 in the API's error body shape.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					requestID := GetRequestID(r.Context())
					stack := debug.Stack()

					logger.Error("panic recovered",
						slog.String("request_id", requestID),
						slog.Any("panic", rec),
						slog.String("stack", string(stack)),
					)

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					w.Write([]byte(`{"error":"An unexpected error occurred","error_code":"INTERNAL_ERROR"}` + "\n"))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
