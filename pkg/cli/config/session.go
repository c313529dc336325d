package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/passage-id/passage/pkg/service/session"
	"github.com/urfave/cli/v3"
)

// Session configures the internal session framework: the signing
// secret for session JWTs and the base URL the bridge uses to reach
// the framework's endpoints.
type Session struct {
	secret  string
	baseURL string
}

func (x *Session) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "session-secret",
			Usage:       "Secret for signing session tokens",
			Category:    "Session",
			Sources:     cli.EnvVars("PASSAGE_SESSION_SECRET"),
			Destination: &x.secret,
		},
		&cli.StringFlag{
			Name:        "session-base-url",
			Usage:       "Base URL of the session framework (default: derived from the listen address)",
			Category:    "Session",
			Sources:     cli.EnvVars("PASSAGE_SESSION_BASE_URL"),
			Destination: &x.baseURL,
		},
	}
}

func (x Session) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("base_url", x.baseURL),
	)
}

// BaseURL returns the configured base URL, or fallbackURL when unset.
func (x *Session) BaseURL(fallbackURL string) string {
	if x.baseURL != "" {
		return x.baseURL
	}
	return fallbackURL
}

func (x *Session) Issuer() (*session.Issuer, error) {
	if x.secret == "" {
		return nil, goerr.New("session secret is required")
	}
	return session.NewIssuer(x.secret), nil
}
