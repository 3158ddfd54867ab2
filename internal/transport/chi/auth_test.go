package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// reached records whether a request got past the auth layer.
func reached(hit *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*hit = true
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestBearerAuth_Routes(t *testing.T) {
	keys := []string{"ingest-key", "reader-key"}

	tests := []struct {
		name     string
		method   string
		path     string
		header   string
		wantCode int
	}{
		{"upsert with ingest key", http.MethodPut, "/documents", "Bearer ingest-key", http.StatusNoContent},
		{"count with reader key", http.MethodPost, "/count", "Bearer reader-key", http.StatusNoContent},
		{"raw search with reader key", http.MethodGet, "/search?q=lucene", "Bearer reader-key", http.StatusNoContent},
		{"upsert without header", http.MethodPut, "/documents", "", http.StatusUnauthorized},
		{"search with basic scheme", http.MethodPost, "/search", "Basic aW5nZXN0LWtleTo=", http.StatusUnauthorized},
		{"lowercase scheme", http.MethodPost, "/search", "bearer reader-key", http.StatusUnauthorized},
		{"unknown key", http.MethodPost, "/count", "Bearer stale-key", http.StatusUnauthorized},
		{"prefix of key", http.MethodPost, "/count", "Bearer reader", http.StatusUnauthorized},
		{"key with suffix", http.MethodPut, "/documents", "Bearer ingest-key2", http.StatusUnauthorized},
		{"empty token", http.MethodPut, "/documents", "Bearer ", http.StatusUnauthorized},
		{"health needs no key", http.MethodGet, "/health", "", http.StatusNoContent},
		{"metrics needs no key", http.MethodGet, "/metrics", "", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hit bool
			handler := BearerAuthMiddleware(keys)(reached(&hit))

			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", rr.Code, tt.wantCode, rr.Body.String())
			}
			if hit != (tt.wantCode == http.StatusNoContent) {
				t.Errorf("handler reached = %v", hit)
			}
			if tt.wantCode != http.StatusUnauthorized {
				return
			}
			var resp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if resp.Code != CodeUnauthorized {
				t.Errorf("code = %s, want %s", resp.Code, CodeUnauthorized)
			}
		})
	}
}

func TestBearerAuth_DisabledWithoutKeys(t *testing.T) {
	for name, keys := range map[string][]string{
		"nil":           nil,
		"blank entries": {"", ""},
	} {
		t.Run(name, func(t *testing.T) {
			var hit bool
			handler := BearerAuthMiddleware(keys)(reached(&hit))

			req := httptest.NewRequest(http.MethodPut, "/documents", http.NoBody)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if !hit || rr.Code != http.StatusNoContent {
				t.Errorf("status = %d reached = %v, want pass-through", rr.Code, hit)
			}
		})
	}
}

func TestBearerAuth_BlankKeyNeverMatches(t *testing.T) {
	var hit bool
	handler := BearerAuthMiddleware([]string{"", "reader-key"})(reached(&hit))

	req := httptest.NewRequest(http.MethodPost, "/search", http.NoBody)
	req.Header.Set("Authorization", "Bearer ")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized || hit {
		t.Errorf("status = %d reached = %v, want 401", rr.Code, hit)
	}
}
