package cli

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/passage-id/passage/pkg/cli/config"
	server "github.com/passage-id/passage/pkg/controller/http"
	"github.com/passage-id/passage/pkg/repository/memory"
	"github.com/passage-id/passage/pkg/service/session"
	"github.com/passage-id/passage/pkg/usecase"
	"github.com/passage-id/passage/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var (
		addr        string
		enableMocks bool

		idpCfg     config.IdP
		appCfg     config.App
		sessionCfg config.Session
		sentryCfg  config.Sentry
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Aliases:     []string{"a"},
			Usage:       "Listen address",
			Category:    "Server",
			Sources:     cli.EnvVars("PASSAGE_ADDR"),
			Value:       "127.0.0.1:8080",
			Destination: &addr,
		},
		&cli.BoolFlag{
			Name:        "enable-mock-graphql",
			Usage:       "Serve deterministic in-process IdP and application GraphQL backends",
			Category:    "Server",
			Sources:     cli.EnvVars("PASSAGE_ENABLE_MOCK_GRAPHQL"),
			Destination: &enableMocks,
		},
	}
	flags = append(flags, idpCfg.Flags()...)
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, sessionCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the bridge HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.From(ctx)
			logger.Info("starting server",
				"addr", addr,
				"mock_graphql", enableMocks,
				"idp", idpCfg,
				"app", appCfg,
				"session", sessionCfg,
				"sentry", sentryCfg,
			)

			if err := sentryCfg.Configure(); err != nil {
				return err
			}

			baseURL := generateBaseURL(addr)
			if enableMocks {
				idpCfg.DefaultEndpoint(baseURL + server.MockIdPPath)
				appCfg.DefaultEndpoint(baseURL + server.MockAppPath)
			}

			idpClient, err := idpCfg.Configure()
			if err != nil {
				return err
			}
			chain, err := appCfg.Configure()
			if err != nil {
				return err
			}
			issuer, err := sessionCfg.Issuer()
			if err != nil {
				return err
			}

			sessionClient := session.New(sessionCfg.BaseURL(baseURL),
				session.WithDefaultCallback(baseURL+server.PostLoginPath),
			)

			uc := usecase.New(idpClient, sessionClient, chain, memory.New())

			var srvOpts []server.Options
			if enableMocks {
				srvOpts = append(srvOpts, server.WithMockBackends(idpCfg.CookieName()))
			}

			httpServer := http.Server{
				Addr:              addr,
				Handler:           server.New(uc, issuer, srvOpts...),
				ReadTimeout:       30 * time.Second,
				ReadHeaderTimeout: 10 * time.Second,
				BaseContext: func(net.Listener) context.Context {
					return ctx
				},
			}

			errCh := make(chan error, 1)
			go func() {
				defer close(errCh)
				if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to listen and serve")
				}
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logger.Info("received signal, shutting down", "signal", sig.String())
			case <-ctx.Done():
				logger.Info("context cancelled, shutting down")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server")
			}

			return nil
		},
	}
}

// generateBaseURL derives the externally reachable base URL from the
// listen address. Wildcard hosts are rewritten to localhost so the
// bridge can call back into its own session framework endpoints.
func generateBaseURL(addr string) string {
	host, port, ok := strings.Cut(addr, ":")
	if !ok {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + host + ":" + port
}
