package http

import (
	"net/http"

	"github.com/passage-id/passage/pkg/domain/model/auth"
	"github.com/passage-id/passage/pkg/service/session"
	"github.com/passage-id/passage/pkg/usecase"
	"github.com/passage-id/passage/pkg/utils/safe"
)

// ssoCallbackHandler is the bridge entry point. It validates the
// authorization code, runs the full bridge sequence, and forwards the
// session framework's response (status, Location, Set-Cookie) to the
// caller verbatim.
func ssoCallbackHandler(uc *usecase.UseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			safe.Write(r.Context(), w, []byte(`{"error": "missing code"}`))
			return
		}

		artifacts, err := uc.HandleSSOCallback(r.Context(), code, r.Header.Get("Cookie"))
		if err != nil {
			redirectLoginError(w, r, err)
			return
		}

		for _, setCookie := range artifacts.SetCookie {
			w.Header().Add("Set-Cookie", setCookie)
		}
		w.Header().Set("Location", artifacts.RedirectLocation)
		w.WriteHeader(artifacts.Status)
	}
}

// postLoginHandler verifies the session and runs the decision chain to
// pick the user's destination.
func postLoginHandler(uc *usecase.UseCase, issuer *session.Issuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(auth.SessionCookieName)
		if err != nil {
			http.Redirect(w, r, "/login?error=session", http.StatusTemporaryRedirect)
			return
		}

		claims, err := issuer.Verify(cookie.Value)
		if err != nil {
			redirectLoginError(w, r, err)
			return
		}

		result, err := uc.PostLogin(r.Context(), claims.Subject)
		if err != nil {
			redirectLoginError(w, r, err)
			return
		}

		http.Redirect(w, r, result.Destination(), http.StatusTemporaryRedirect)
	}
}
