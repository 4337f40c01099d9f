package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		origins     []string
		origin      string
		wantAllow   string
		wantCredHdr string
	}{
		{"wildcard", nil, "https://app.example.com", "*", ""},
		{"listed origin", []string{"https://app.example.com"}, "https://app.example.com", "https://app.example.com", "true"},
		{"unlisted origin", []string{"https://app.example.com"}, "https://evil.example.com", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := CORS(tt.origins)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			req := httptest.NewRequest(http.MethodGet, "/api/organisations", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantAllow)
			}
			if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != tt.wantCredHdr {
				t.Errorf("Allow-Credentials = %q, want %q", got, tt.wantCredHdr)
			}
		})
	}
}
