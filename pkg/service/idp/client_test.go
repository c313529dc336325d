package idp_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/passage-id/passage/pkg/domain/model/auth"
	"github.com/passage-id/passage/pkg/domain/model/errs"
	"github.com/passage-id/passage/pkg/service/gql"
	"github.com/passage-id/passage/pkg/service/idp"
)

func newIdPServer(t *testing.T, handler http.HandlerFunc) *gql.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return gql.New(srv.URL)
}

func TestExchangeSuccess(t *testing.T) {
	var gotCookie string
	client := newIdPServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		var req struct {
			Variables map[string]any `json:"variables"`
		}
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gt.Equal(t, req.Variables["code"], "ABC123")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"userInfo":{"id":"user-ABC123","name":"Alex","email":"alex@example.com","roles":["user","viewer"]}}}`))
	})

	exchanger := idp.New(client)
	claims, err := exchanger.Exchange(t.Context(), "ABC123", auth.CorrelationToken{Value: "sso-token"})
	gt.NoError(t, err)
	gt.Equal(t, gotCookie, "iPlanetDirectoryPro=sso-token")
	gt.Equal(t, claims.SubjectID, "user-ABC123")
	gt.Equal(t, claims.DisplayName, "Alex")
	gt.Equal(t, claims.Roles, []string{"user", "viewer"})
}

func TestExchangeMissingSubject(t *testing.T) {
	client := newIdPServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"userInfo":{"name":"no id"}}}`))
	})

	exchanger := idp.New(client)
	_, err := exchanger.Exchange(t.Context(), "ABC123", auth.CorrelationToken{Value: "sso-token"})
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, errs.TagUserinfoShape))
}

func TestExchangeTransportFailure(t *testing.T) {
	client := newIdPServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})

	exchanger := idp.New(client)
	_, err := exchanger.Exchange(t.Context(), "ABC123", auth.CorrelationToken{Value: "sso-token"})
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, errs.TagUserinfo))
}

func TestExchangeSyntheticFallback(t *testing.T) {
	client := newIdPServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})

	t.Run("substitutes only for fallback tokens", func(t *testing.T) {
		exchanger := idp.New(client, idp.WithSyntheticIdentity(true))

		claims, err := exchanger.Exchange(t.Context(), "ABC123", auth.CorrelationToken{Value: "x", Fallback: true})
		gt.NoError(t, err)
		gt.Equal(t, claims.SubjectID, "dev-ABC123")
		gt.Equal(t, claims.Roles, []string{"user"})
	})

	t.Run("real token still fails", func(t *testing.T) {
		exchanger := idp.New(client, idp.WithSyntheticIdentity(true))

		_, err := exchanger.Exchange(t.Context(), "ABC123", auth.CorrelationToken{Value: "real"})
		gt.Error(t, err)
	})

	t.Run("disabled knob still fails", func(t *testing.T) {
		exchanger := idp.New(client)

		_, err := exchanger.Exchange(t.Context(), "ABC123", auth.CorrelationToken{Value: "x", Fallback: true})
		gt.Error(t, err)
	})
}
