package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dokterku/clinic-finance/pkg/logger"
)

// RequestID attaches a trace id to the request-scoped logger and echoes
// it back in the response, honoring an id supplied by the caller.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Trace-ID")
		if traceID == "" {
			traceID = uuid.NewString()
		}

		ctx := logger.With(r.Context(), "traceID", traceID)
		w.Header().Set("X-Trace-ID", traceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
