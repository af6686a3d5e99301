package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func echoRemoteAddr(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(r.RemoteAddr))
}

func TestTrustedRealIP(t *testing.T) {
	handler := TrustedRealIP([]string{"10.0.0.0/8", "192.168.1.5", "not-a-cidr"})(http.HandlerFunc(echoRemoteAddr))

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"trusted proxy real ip", "10.1.2.3:4000", map[string]string{"X-Real-IP": "203.0.113.7"}, "203.0.113.7"},
		{"trusted proxy forwarded chain", "10.1.2.3:4000", map[string]string{"X-Forwarded-For": "203.0.113.8, 10.1.2.3"}, "203.0.113.8"},
		{"trusted bare address", "192.168.1.5:4000", map[string]string{"X-Real-IP": "203.0.113.9"}, "203.0.113.9"},
		{"untrusted client spoofing", "198.51.100.2:5000", map[string]string{"X-Real-IP": "203.0.113.7"}, "198.51.100.2:5000"},
		{"trusted proxy invalid header", "10.1.2.3:4000", map[string]string{"X-Real-IP": "garbage"}, "10.1.2.3:4000"},
		{"trusted proxy no header", "10.1.2.3:4000", nil, "10.1.2.3:4000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if got := rec.Body.String(); got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRequireAPIKey(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name    string
		enabled bool
		key     string
		want    int
	}{
		{"disabled", false, "", http.StatusNoContent},
		{"missing key", true, "", http.StatusUnauthorized},
		{"wrong key", true, "nope", http.StatusForbidden},
		{"second key accepted", true, "beta", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireAPIKey(tt.enabled, []string{"alpha", "beta"})(ok)
			req := httptest.NewRequest(http.MethodPost, "/api/import", nil)
			if tt.key != "" {
				req.Header.Set(APIKeyHeader, tt.key)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestLogger_CapturesStatusAndSize(t *testing.T) {
	var captured *responseWriter
	handler := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = w.(*responseWriter)
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("short"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
	if captured.status != http.StatusTeapot || captured.bytes != 5 {
		t.Errorf("captured status=%d bytes=%d", captured.status, captured.bytes)
	}
}
