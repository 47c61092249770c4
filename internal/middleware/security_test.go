package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSecureHeaders(t *testing.T) {
	want := map[string]string{
		"X-Content-Type-Options":       "nosniff",
		"X-Frame-Options":              "DENY",
		"Content-Security-Policy":      "default-src 'none'; frame-ancestors 'none'",
		"Referrer-Policy":              "no-referrer",
		"Cross-Origin-Resource-Policy": "same-origin",
	}

	// Headers must be present on error responses written by the handler too.
	for _, status := range []int{http.StatusOK, http.StatusNotFound, http.StatusUnprocessableEntity} {
		h := SecureHeaders(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSONError(w, status, "x")
		}))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/posts/slug/missing", nil))

		if rr.Code != status {
			t.Fatalf("status = %d, want %d", rr.Code, status)
		}
		for name, value := range want {
			if got := rr.Header().Get(name); got != value {
				t.Errorf("status %d: %s = %q, want %q", status, name, got, value)
			}
		}
	}
}

func TestSecureHeadersOverrideHandler(t *testing.T) {
	h := SecureHeaders(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if w.Header().Get("X-Frame-Options") != "DENY" {
			t.Error("headers should be set before the handler runs")
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/tags/3", nil))

	if rr.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rr.Code)
	}
}
