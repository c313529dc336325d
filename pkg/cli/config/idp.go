package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/passage-id/passage/pkg/domain/model/auth"
	"github.com/passage-id/passage/pkg/service/gql"
	"github.com/passage-id/passage/pkg/service/idp"
	"github.com/urfave/cli/v3"
)

type IdP struct {
	endpoint        string
	authorization   string
	cookieName      string
	fallbackLiteral string
	allowSynthetic  bool
}

func (x *IdP) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "idp-endpoint",
			Usage:       "IdP userinfo GraphQL endpoint URL",
			Category:    "IdP",
			Sources:     cli.EnvVars("PASSAGE_IDP_ENDPOINT"),
			Destination: &x.endpoint,
		},
		&cli.StringFlag{
			Name:        "idp-authorization",
			Usage:       "Static authorization header for the IdP endpoint",
			Category:    "IdP",
			Sources:     cli.EnvVars("PASSAGE_IDP_AUTHORIZATION"),
			Destination: &x.authorization,
		},
		&cli.StringFlag{
			Name:        "sso-cookie-name",
			Usage:       "Name of the SSO correlation cookie",
			Category:    "IdP",
			Value:       auth.DefaultCorrelationCookie,
			Sources:     cli.EnvVars("PASSAGE_SSO_COOKIE_NAME"),
			Destination: &x.cookieName,
		},
		&cli.StringFlag{
			Name:        "sso-fallback-literal",
			Usage:       "Correlation value sent to the IdP when the cookie is absent (dev deployments)",
			Category:    "IdP",
			Sources:     cli.EnvVars("PASSAGE_SSO_FALLBACK"),
			Destination: &x.fallbackLiteral,
		},
		&cli.BoolFlag{
			Name:        "allow-synthetic-identity",
			Usage:       "Substitute a developer identity when the IdP exchange fails (never in production)",
			Category:    "IdP",
			Sources:     cli.EnvVars("PASSAGE_ALLOW_SYNTHETIC_IDENTITY"),
			Destination: &x.allowSynthetic,
		},
	}
}

func (x IdP) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("endpoint", x.endpoint),
		slog.String("cookie_name", x.cookieName),
		slog.Bool("allow_synthetic", x.allowSynthetic),
	)
}

func (x *IdP) CookieName() string {
	return x.cookieName
}

// DefaultEndpoint fills the endpoint when no flag was provided, e.g.
// with the in-process mock backend URL.
func (x *IdP) DefaultEndpoint(url string) {
	if x.endpoint == "" {
		x.endpoint = url
	}
}

func (x *IdP) Configure() (*idp.Client, error) {
	if x.endpoint == "" {
		return nil, goerr.New("IdP endpoint is required")
	}

	var gqlOpts []gql.Option
	if x.authorization != "" {
		gqlOpts = append(gqlOpts, gql.WithAuthorization(x.authorization))
	}

	return idp.New(gql.New(x.endpoint, gqlOpts...),
		idp.WithCookieName(x.cookieName),
		idp.WithFallbackLiteral(x.fallbackLiteral),
		idp.WithSyntheticIdentity(x.allowSynthetic),
	), nil
}
