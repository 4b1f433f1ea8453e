// Package httpserver configures the API and metrics listeners.
package httpserver

import (
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultRequestTimeout = 30 * time.Second
	// writeSlack lets the router's own timeout answer with an error envelope before the
	// connection is cut.
	writeSlack = 5 * time.Second
)

type settings struct {
	requestTimeout time.Duration
	logger         *slog.Logger
}

type Option func(*settings)

// WithRequestTimeout sets the time a handler may take; read and write deadlines follow it.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// WithLogger routes net/http connection errors into the service log.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// New builds a server for the compliance API. Submissions are small JSON bodies, so the
// read deadline is shorter than the write deadline, which covers a full log replay.
func New(addr string, handler http.Handler, opts ...Option) *http.Server {
	s := settings{requestTimeout: defaultRequestTimeout}
	for _, opt := range opts {
		opt(&s)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       min(15*time.Second, s.requestTimeout),
		WriteTimeout:      s.requestTimeout + writeSlack,
		IdleTimeout:       2 * time.Minute,
	}
	if s.logger != nil {
		srv.ErrorLog = slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn)
	}
	return srv
}
