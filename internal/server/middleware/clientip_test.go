package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"org-access-api/backend/internal/audit"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xri        string
		remoteAddr string
		want       string
	}{
		{"forwarded for", "10.0.0.1", "", "192.0.2.1:1234", "10.0.0.1"},
		{"forwarded for list", " 10.0.0.1 , 10.0.0.2", "", "192.0.2.1:1234", "10.0.0.1"},
		{"forwarded for wins over real ip", "10.0.0.1", "10.0.0.9", "192.0.2.1:1234", "10.0.0.1"},
		{"real ip", "", "10.0.0.9", "192.0.2.1:1234", "10.0.0.9"},
		{"remote addr", "", "", "192.0.2.1:1234", "192.0.2.1"},
		{"remote addr without port", "", "", "192.0.2.1", "192.0.2.1"},
		{"unknown", "", "", "", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := ClientIP(req); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCaptureClientIP(t *testing.T) {
	var got string
	h := CaptureClientIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = audit.ClientIP(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", "10.1.2.3")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "10.1.2.3" {
		t.Errorf("audit.ClientIP = %q, want %q", got, "10.1.2.3")
	}
}

func TestPeerIP(t *testing.T) {
	trusted := []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.168.1.1/32"),
	}
	tests := []struct {
		name       string
		trusted    []netip.Prefix
		xff        []string
		xri        string
		remoteAddr string
		want       string
	}{
		{"no trusted proxies ignores headers", nil, []string{"203.0.113.7"}, "203.0.113.8", "192.0.2.1:1234", "192.0.2.1"},
		{"untrusted peer ignores headers", trusted, []string{"203.0.113.7"}, "", "192.0.2.1:1234", "192.0.2.1"},
		{"trusted peer uses appended hop", trusted, []string{"198.51.100.1, 203.0.113.7"}, "", "10.0.0.5:1234", "203.0.113.7"},
		{"skips trusted hops", trusted, []string{"203.0.113.7, 192.168.1.1, 10.2.3.4"}, "", "10.0.0.5:1234", "203.0.113.7"},
		{"multiple header lines", trusted, []string{"198.51.100.1", "203.0.113.7"}, "", "10.0.0.5:1234", "203.0.113.7"},
		{"all hops trusted", trusted, []string{"10.1.1.1, 10.2.2.2"}, "", "10.0.0.5:1234", "10.1.1.1"},
		{"garbage hop stops the walk", trusted, []string{"203.0.113.7, not-an-ip, 10.2.2.2"}, "", "10.0.0.5:1234", "10.2.2.2"},
		{"real ip from trusted peer", trusted, nil, "203.0.113.9", "10.0.0.5:1234", "203.0.113.9"},
		{"invalid real ip", trusted, nil, "nope", "10.0.0.5:1234", "10.0.0.5"},
		{"unknown", trusted, nil, "", "", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for _, v := range tt.xff {
				req.Header.Add("X-Forwarded-For", v)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := PeerIP(req, tt.trusted); got != tt.want {
				t.Errorf("PeerIP = %q, want %q", got, tt.want)
			}
		})
	}
}
