package httpserver

import (
	"bytes"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	srv := New(":8080", http.NotFoundHandler())

	assert.Equal(t, ":8080", srv.Addr)
	assert.Equal(t, 15*time.Second, srv.ReadTimeout)
	assert.Equal(t, 35*time.Second, srv.WriteTimeout)
	assert.Nil(t, srv.ErrorLog)
}

func TestNewFollowsRequestTimeout(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	srv := New(":8080", http.NotFoundHandler(), WithRequestTimeout(2*time.Second), WithLogger(logger))

	assert.Equal(t, 2*time.Second, srv.ReadTimeout)
	assert.Equal(t, 7*time.Second, srv.WriteTimeout, "the router times out before the connection")
	require.NotNil(t, srv.ErrorLog)
	srv.ErrorLog.Print("http: TLS handshake error")
	assert.Contains(t, buf.String(), "level=WARN")
}

func TestNewIgnoresNonPositiveTimeout(t *testing.T) {
	srv := New(":8080", http.NotFoundHandler(), WithRequestTimeout(0))
	assert.Equal(t, 35*time.Second, srv.WriteTimeout)
}
