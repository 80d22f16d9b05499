package http_server

import (
	"net/http"
	"testing"
	"time"
)

func TestOptions(t *testing.T) {
	tests := []struct {
		name         string
		opts         []Option
		wantRead     time.Duration
		wantShutdown time.Duration
	}{
		{"defaults", nil, 0, defaultShutdownTimeout},
		{"explicit", []Option{ReadTimeout(5 * time.Second), ShutdownTimeout(time.Second)}, 5 * time.Second, time.Second},
		{"zero keeps defaults", []Option{ReadTimeout(0), ShutdownTimeout(0)}, 0, defaultShutdownTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(http.NotFoundHandler(), "127.0.0.1:0", tt.opts...)
			defer s.Shutdown()

			if s.server.ReadTimeout != tt.wantRead {
				t.Fatalf("expected read timeout %s, got %s", tt.wantRead, s.server.ReadTimeout)
			}
			if s.shutdownTimeout != tt.wantShutdown {
				t.Fatalf("expected shutdown timeout %s, got %s", tt.wantShutdown, s.shutdownTimeout)
			}
		})
	}
}
