package auth

import "time"

const (
	// SessionCookieName carries the internal session JWT.
	SessionCookieName = "passage_session"

	// CSRFCookieName carries the anti-forgery token issued before a
	// credential exchange.
	CSRFCookieName = "passage_csrf"

	// SessionMaxAge matches the internal framework's session lifetime.
	SessionMaxAge = 8 * time.Hour
)

// CSRFContext is the anti-forgery token plus the cookies that came with
// it. It is single-use: the credential POST that carries it consumes it.
type CSRFContext struct {
	Token       string
	CookiePairs []string
}

// SessionArtifacts is the terminal output of the credential bridge. The
// status, redirect location and Set-Cookie headers are forwarded to the
// original caller without interpretation.
type SessionArtifacts struct {
	RedirectLocation string
	Status           int
	SetCookie        []string
}

// SessionClaims is the identity recorded inside the session JWT.
type SessionClaims struct {
	Subject     string   `json:"sub"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	ParentAccID string   `json:"parentaccId,omitempty"`
}
