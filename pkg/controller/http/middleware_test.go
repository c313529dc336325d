package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"
	server "github.com/passage-id/passage/pkg/controller/http"
)

func TestPanicRecoveryMiddleware(t *testing.T) {
	handler := server.PanicRecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("credential store exploded")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/csrf", nil))

	gt.Equal(t, http.StatusInternalServerError, w.Code)
	// The panic message must not reach the client
	gt.S(t, w.Body.String()).NotContains("credential store exploded")
}

func TestLoggingMiddlewarePassesThrough(t *testing.T) {
	handler := server.LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	gt.Equal(t, http.StatusTeapot, w.Code)
}
