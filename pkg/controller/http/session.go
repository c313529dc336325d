package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/passage-id/passage/pkg/domain/model/auth"
	"github.com/passage-id/passage/pkg/domain/model/errs"
	"github.com/passage-id/passage/pkg/service/session"
	"github.com/passage-id/passage/pkg/usecase"
	"github.com/passage-id/passage/pkg/utils/safe"
)

// csrfHandler issues a fresh anti-forgery token bound to a cookie. The
// token must accompany the next credential POST and is valid once.
func csrfHandler(uc *usecase.UseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := uc.IssueCSRFToken(r.Context())
		if err != nil {
			handleError(w, r, err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     auth.CSRFCookieName,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   600,
		})

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		body, _ := json.Marshal(map[string]string{"csrfToken": token})
		safe.Write(r.Context(), w, body)
	}
}

// credentialsCallbackHandler is the credential exchange: it checks the
// double-submit CSRF token, resolves the presented credentials into
// identity claims, mints the session JWT and redirects to the callback
// URL.
func credentialsCallbackHandler(uc *usecase.UseCase, issuer *session.Issuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			handleError(w, r, goerr.Wrap(err, "failed to parse credential form", goerr.T(errs.TagInvalidRequest)))
			return
		}

		bodyToken := r.PostFormValue("csrfToken")
		cookie, err := r.Cookie(auth.CSRFCookieName)
		if bodyToken == "" || err != nil || cookie.Value != bodyToken {
			handleError(w, r, goerr.New("CSRF token mismatch", goerr.T(errs.TagCSRFToken)))
			return
		}
		if err := uc.ConsumeCSRFToken(r.Context(), bodyToken); err != nil {
			handleError(w, r, err)
			return
		}

		claims, err := uc.AuthorizeCredentials(r.Context(), &usecase.CredentialInput{
			UserID:           r.PostFormValue("userId"),
			Name:             r.PostFormValue("name"),
			Email:            r.PostFormValue("email"),
			RolesJSON:        r.PostFormValue("roles"),
			ParentAccID:      r.PostFormValue("parentaccId"),
			Code:             r.PostFormValue("code"),
			CorrelationToken: r.PostFormValue("correlationToken"),
			Fallback:         r.PostFormValue("fallback") == "true",
		})
		if err != nil {
			handleError(w, r, err)
			return
		}

		signed, err := issuer.Issue(claims)
		if err != nil {
			handleError(w, r, err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     auth.SessionCookieName,
			Value:    signed,
			Path:     "/",
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Now().Add(issuer.MaxAge()),
		})

		callbackURL := r.URL.Query().Get("callbackUrl")
		if callbackURL == "" {
			callbackURL = "/"
		}
		http.Redirect(w, r, callbackURL, http.StatusFound)
	}
}
