package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/results/internal/auth"
	"github.com/JonMunkholm/results/internal/config"
	"github.com/JonMunkholm/results/internal/logging"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name       string
		trusted    []string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "no trusted proxies ignores headers",
			remoteAddr: "203.0.113.9:5000",
			headers:    map[string]string{"X-Real-IP": "1.2.3.4"},
			want:       "203.0.113.9:5000",
		},
		{
			name:       "trusted cidr uses X-Real-IP",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.1.2.3:443",
			headers:    map[string]string{"X-Real-IP": "198.51.100.7"},
			want:       "198.51.100.7",
		},
		{
			name:       "trusted bare address uses first forwarded entry",
			trusted:    []string{"127.0.0.1"},
			remoteAddr: "127.0.0.1:9000",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.7, 10.0.0.2"},
			want:       "198.51.100.7",
		},
		{
			name:       "untrusted peer keeps remote addr",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "192.0.2.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.7"},
			want:       "192.0.2.1:1234",
		},
		{
			name:       "invalid header keeps remote addr",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "not-an-ip"},
			want:       "10.0.0.1:1234",
		},
		{
			name:       "invalid trusted entry skipped",
			trusted:    []string{"garbage", "::1"},
			remoteAddr: "[::1]:8080",
			headers:    map[string]string{"X-Real-IP": "2001:db8::1"},
			want:       "2001:db8::1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWebhookSecret(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.WebhookConfig
		method string
		secret string
		want   int
	}{
		{"disabled", config.WebhookConfig{}, http.MethodPost, "", http.StatusOK},
		{"valid secret", config.WebhookConfig{RequireSecret: true, Secrets: []string{"a", "b"}}, http.MethodPost, "b", http.StatusOK},
		{"missing secret", config.WebhookConfig{RequireSecret: true, Secrets: []string{"a"}}, http.MethodPost, "", http.StatusUnauthorized},
		{"wrong secret", config.WebhookConfig{RequireSecret: true, Secrets: []string{"a"}}, http.MethodPost, "z", http.StatusForbidden},
		{"no secrets configured", config.WebhookConfig{RequireSecret: true}, http.MethodPost, "a", http.StatusForbidden},
		{"non-post passes through", config.WebhookConfig{RequireSecret: true, Secrets: []string{"a"}}, http.MethodGet, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			h := WebhookSecret(&cfg)(okHandler())

			req := httptest.NewRequest(tt.method, "/webhooks/storage", nil)
			if tt.secret != "" {
				req.Header.Set(WebhookSecretHeader, tt.secret)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if rec.Code != http.StatusOK && !strings.Contains(rec.Body.String(), `"ok":false`) {
				t.Errorf("body = %s, want JSON error", rec.Body.String())
			}
		})
	}
}

func TestRequireAuthAndRole(t *testing.T) {
	tokens := auth.NewTokenService(auth.TokenConfig{Secret: strings.Repeat("k", 32), TTL: time.Hour, Issuer: "results"})
	adminToken, _, err := tokens.Issue(auth.Identity{ID: "a1", Role: "admin"})
	if err != nil {
		t.Fatal(err)
	}
	studentToken, _, err := tokens.Issue(auth.Identity{ID: "s1", Role: "student", RollNo: "S100"})
	if err != nil {
		t.Fatal(err)
	}

	var seen auth.Identity
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	adminOnly := RequireAuth(tokens)(RequireRole("admin")(inner))
	anyUser := RequireAuth(tokens)(inner)

	tests := []struct {
		name    string
		handler http.Handler
		header  string
		want    int
	}{
		{"no header", anyUser, "", http.StatusUnauthorized},
		{"bad scheme", anyUser, "Token " + studentToken, http.StatusUnauthorized},
		{"garbage token", anyUser, "Bearer abc", http.StatusUnauthorized},
		{"student on open route", anyUser, "Bearer " + studentToken, http.StatusOK},
		{"student on admin route", adminOnly, "Bearer " + studentToken, http.StatusForbidden},
		{"admin on admin route", adminOnly, "Bearer " + adminToken, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			tt.handler.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/x", nil)
	req.Header.Set("Authorization", "Bearer "+studentToken)
	anyUser.ServeHTTP(httptest.NewRecorder(), req)
	if seen.ID != "s1" || seen.RollNo != "S100" {
		t.Errorf("identity = %+v", seen)
	}
}

func TestRequireRole_WithoutAuth(t *testing.T) {
	rec := httptest.NewRecorder()
	RequireRole("admin")(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := logging.New(&buf, "debug", "text")

	h := chimw.RequestID(Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("nope"))
	})))

	req := httptest.NewRequest(http.MethodPost, "/webhooks/storage", nil)
	req = req.WithContext(logging.NewContext(context.Background(), base))
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, want := range []string{"level=WARN", "status=400", "bytes=4", "path=/webhooks/storage", "request_id="} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %q", out, want)
		}
	}
}

func TestStatusRecorder_DefaultsToOK(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rec, status: http.StatusOK}
	_, _ = sr.Write([]byte("hi"))
	sr.WriteHeader(http.StatusTeapot)

	if sr.status != http.StatusOK || rec.Code != http.StatusOK {
		t.Errorf("status = %d / %d, want 200", sr.status, rec.Code)
	}
	if sr.bytes != 2 {
		t.Errorf("bytes = %d, want 2", sr.bytes)
	}
}
