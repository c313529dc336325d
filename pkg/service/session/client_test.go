package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/passage-id/passage/pkg/domain/model/auth"
	"github.com/passage-id/passage/pkg/domain/model/errs"
	"github.com/passage-id/passage/pkg/service/session"
)

func TestFetchCSRF(t *testing.T) {
	t.Run("returns token and cookie pairs", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gt.Equal(t, r.URL.Path, session.CSRFPath)
			gt.Equal(t, r.Header.Get("Cookie"), "a=1")
			gt.Equal(t, r.Header.Get("Cache-Control"), "no-store")
			w.Header().Add("Set-Cookie", "passage_csrf=tok123; Path=/; HttpOnly")
			w.Header().Add("Set-Cookie", "extra=x; Path=/")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"csrfToken":"tok123"}`))
		}))
		defer srv.Close()

		client := session.New(srv.URL)
		csrfCtx, err := client.FetchCSRF(t.Context(), "a=1")
		gt.NoError(t, err)
		gt.Equal(t, csrfCtx.Token, "tok123")
		gt.Equal(t, csrfCtx.CookiePairs, []string{"passage_csrf=tok123", "extra=x"})
	})

	t.Run("non-success status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		client := session.New(srv.URL)
		_, err := client.FetchCSRF(t.Context(), "")
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, errs.TagCSRFHTTP))
		gt.Equal(t, goerr.Values(err)["status_code"], http.StatusServiceUnavailable)
	})

	t.Run("unresponsive endpoint aborts at the deadline", func(t *testing.T) {
		block := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-block:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(block)

		client := session.New(srv.URL, session.WithTimeout(50*time.Millisecond))
		start := time.Now()
		_, err := client.FetchCSRF(t.Context(), "")
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, errs.TagCSRFHTTP))
		gt.True(t, time.Since(start) < 5*time.Second)
	})

	t.Run("missing token in body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		client := session.New(srv.URL)
		_, err := client.FetchCSRF(t.Context(), "")
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, errs.TagCSRFToken))
	})
}

func TestExchangeCredentials(t *testing.T) {
	t.Run("posts merged cookies and forwards artifacts", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc(session.CSRFPath, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Set-Cookie", "passage_csrf=tok123; Path=/; HttpOnly")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"csrfToken":"tok123"}`))
		})
		mux.HandleFunc(session.CredentialsCallbackPath, func(w http.ResponseWriter, r *http.Request) {
			gt.NoError(t, r.ParseForm())
			gt.Equal(t, r.Header.Get("Cookie"), "session_hint=1; passage_csrf=tok123")
			gt.Equal(t, r.FormValue("csrfToken"), "tok123")
			gt.Equal(t, r.FormValue("code"), "ABC123")
			gt.Equal(t, r.FormValue("correlationToken"), "corr-1")
			gt.Equal(t, r.FormValue("fallback"), "true")
			gt.Equal(t, r.FormValue("userId"), "user-1")
			gt.Equal(t, r.URL.Query().Get("callbackUrl"), "http://portal.example/api/postLogin")

			w.Header().Add("Set-Cookie", "passage_session=jwt; Path=/; HttpOnly")
			w.Header().Set("Location", "http://portal.example/api/postLogin")
			w.WriteHeader(http.StatusFound)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		client := session.New(srv.URL)
		artifacts, err := client.ExchangeCredentials(t.Context(), &session.Credentials{
			Code:        "ABC123",
			Correlation: auth.CorrelationToken{Value: "corr-1", Fallback: true},
			Identity:    &auth.IdentityClaims{SubjectID: "user-1", Roles: []string{"user"}},
			CallbackURL: "http://portal.example/api/postLogin",
		}, "session_hint=1")
		gt.NoError(t, err)
		gt.Equal(t, artifacts.Status, http.StatusFound)
		gt.Equal(t, artifacts.RedirectLocation, "http://portal.example/api/postLogin")
		gt.Equal(t, artifacts.SetCookie, []string{"passage_session=jwt; Path=/; HttpOnly"})
	})

	t.Run("CSRF failure aborts before the POST", func(t *testing.T) {
		posted := false
		mux := http.NewServeMux()
		mux.HandleFunc(session.CSRFPath, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusServiceUnavailable)
		})
		mux.HandleFunc(session.CredentialsCallbackPath, func(w http.ResponseWriter, r *http.Request) {
			posted = true
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		client := session.New(srv.URL)
		_, err := client.ExchangeCredentials(t.Context(), &session.Credentials{Code: "ABC123"}, "")
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, errs.TagCSRFHTTP))
		gt.False(t, posted)
	})

	t.Run("credential POST aborts at its own deadline", func(t *testing.T) {
		block := make(chan struct{})
		mux := http.NewServeMux()
		mux.HandleFunc(session.CSRFPath, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"csrfToken":"tok123"}`))
		})
		mux.HandleFunc(session.CredentialsCallbackPath, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-block:
			case <-r.Context().Done():
			}
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()
		defer close(block)

		client := session.New(srv.URL, session.WithTimeout(50*time.Millisecond))
		start := time.Now()
		_, err := client.ExchangeCredentials(t.Context(), &session.Credentials{Code: "ABC123"}, "")
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, errs.TagSession))
		gt.True(t, time.Since(start) < 5*time.Second)
	})

	t.Run("non-redirect response forwarded as-is", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc(session.CSRFPath, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"csrfToken":"tok123"}`))
		})
		mux.HandleFunc(session.CredentialsCallbackPath, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		client := session.New(srv.URL, session.WithDefaultCallback("/api/postLogin"))
		artifacts, err := client.ExchangeCredentials(t.Context(), &session.Credentials{Code: "ABC123"}, "")
		gt.NoError(t, err)
		gt.Equal(t, artifacts.Status, http.StatusUnauthorized)
		gt.Equal(t, artifacts.RedirectLocation, "/api/postLogin")
	})
}
