package realtime

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://app.example.com/", "http://localhost:3000"})

	tests := []struct {
		name   string
		origin string
		want   bool
	}{
		{"no origin header", "", true},
		{"configured origin", "https://app.example.com", true},
		{"dev origin", "http://localhost:3000", true},
		{"same host", "http://api.example.com", true},
		{"foreign origin", "https://evil.example.net", false},
		{"scheme mismatch", "http://app.example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "http://api.example.com/ws/bookings", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, check(req))
		})
	}
}
