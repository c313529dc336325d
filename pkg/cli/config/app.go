package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/passage-id/passage/pkg/service/decision"
	"github.com/passage-id/passage/pkg/service/gql"
	"github.com/urfave/cli/v3"
)

// App configures the application backend queried by the decision chain.
type App struct {
	endpoint      string
	authorization string
}

func (x *App) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "app-endpoint",
			Usage:       "Application GraphQL endpoint URL",
			Category:    "App",
			Sources:     cli.EnvVars("PASSAGE_APP_ENDPOINT"),
			Destination: &x.endpoint,
		},
		&cli.StringFlag{
			Name:        "app-authorization",
			Usage:       "Static authorization header for the application endpoint",
			Category:    "App",
			Sources:     cli.EnvVars("PASSAGE_APP_AUTHORIZATION"),
			Destination: &x.authorization,
		},
	}
}

func (x App) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("endpoint", x.endpoint),
	)
}

// DefaultEndpoint fills the endpoint when no flag was provided, e.g.
// with the in-process mock backend URL.
func (x *App) DefaultEndpoint(url string) {
	if x.endpoint == "" {
		x.endpoint = url
	}
}

func (x *App) Configure() (*decision.Chain, error) {
	if x.endpoint == "" {
		return nil, goerr.New("application endpoint is required")
	}

	var gqlOpts []gql.Option
	if x.authorization != "" {
		gqlOpts = append(gqlOpts, gql.WithAuthorization(x.authorization))
	}

	return decision.New(gql.New(x.endpoint, gqlOpts...)), nil
}
