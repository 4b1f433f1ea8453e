// Package request provides middleware that stamps request-scoped values into the context.
// All operations within a single HTTP request use the same "now" timestamp, so budgets and
// violation detection times computed during one request agree with each other.
package request

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"eldcore/pkg/requestcontext"
)

// HeaderRequestID is the correlation header honored and echoed by Middleware.
const HeaderRequestID = "X-Request-ID"

// Middleware captures the request time and correlation ID.
// An inbound X-Request-ID is reused; otherwise a new UUID is generated.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, requestID)

		ctx := requestcontext.WithTime(r.Context(), time.Now())
		ctx = requestcontext.WithRequestID(ctx, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
