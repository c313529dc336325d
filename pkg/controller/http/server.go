package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/passage-id/passage/pkg/service/session"
	"github.com/passage-id/passage/pkg/usecase"
	"github.com/passage-id/passage/pkg/utils/safe"
)

// BridgePath is the SSO callback entry point registered with the IdP.
const BridgePath = "/api/auth/callback/forgerock"

// PostLoginPath evaluates the decision chain after a session exists.
const PostLoginPath = "/api/postLogin"

// Mock GraphQL backend paths, active only with WithMockBackends.
const (
	MockIdPPath = "/api/mock-graphql/idp"
	MockAppPath = "/api/mock-graphql/app"
)

type Server struct {
	router *chi.Mux
	uc     *usecase.UseCase
	issuer *session.Issuer

	// mockSSOCookie enables the in-process mock GraphQL backends when
	// non-empty; the value is the correlation cookie the mock IdP
	// requires.
	mockSSOCookie string
}

type Options func(*Server)

// WithMockBackends serves deterministic mock IdP/app GraphQL endpoints
// for development and tests.
func WithMockBackends(ssoCookieName string) Options {
	return func(s *Server) {
		s.mockSSOCookie = ssoCookieName
	}
}

func New(uc *usecase.UseCase, issuer *session.Issuer, opts ...Options) *Server {
	s := &Server{
		router: chi.NewRouter(),
		uc:     uc,
		issuer: issuer,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := s.router
	r.Use(loggingMiddleware)
	r.Use(panicRecoveryMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		safe.Write(r.Context(), w, []byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Get("/callback/forgerock", ssoCallbackHandler(s.uc))
			r.Get("/csrf", csrfHandler(s.uc))
			r.Post("/callback/credentials", credentialsCallbackHandler(s.uc, s.issuer))
		})
		r.Get("/postLogin", postLoginHandler(s.uc, s.issuer))

		if s.mockSSOCookie != "" {
			r.Route("/mock-graphql", func(r chi.Router) {
				r.Post("/idp", mockIdPHandler(s.mockSSOCookie))
				r.Post("/app", mockAppHandler())
			})
		}
	})

	return s
}

func (x *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	x.router.ServeHTTP(w, r)
}
