package testutil

import (
	"context"
	"net/http"
	"time"

	"eldcore/pkg/requestcontext"
)

// AtTime pins the request clock, as the request middleware would for a live request.
func AtTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}

// ContextAt returns a background context whose request clock reads t.
func ContextAt(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}
