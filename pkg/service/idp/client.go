// Package idp resolves authorization codes into verified identity
// claims through the IdP's GraphQL userinfo endpoint.
package idp

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/passage-id/passage/pkg/domain/model/auth"
	"github.com/passage-id/passage/pkg/domain/model/errs"
	"github.com/passage-id/passage/pkg/service/gql"
	"github.com/passage-id/passage/pkg/utils/logging"
)

const userinfoQuery = `
  query GetUserInfo($code: String!) {
    userInfo(code: $code) {
      id
      name
      email
      roles
      parentaccId
    }
  }
`

type Client struct {
	gql        *gql.Client
	cookieName string

	// fallbackLiteral, when set, replaces a generated fallback token on
	// the wire. Development IdP deployments recognize this literal as a
	// standing mock session.
	fallbackLiteral string

	// allowSynthetic substitutes a developer identity when the exchange
	// fails for a request that carried no real correlation cookie. It
	// must stay off in production deployments.
	allowSynthetic bool
}

type Option func(*Client)

func WithCookieName(name string) Option {
	return func(x *Client) {
		x.cookieName = name
	}
}

// WithSyntheticIdentity enables the non-production fallback identity.
func WithSyntheticIdentity(allow bool) Option {
	return func(x *Client) {
		x.allowSynthetic = allow
	}
}

func WithFallbackLiteral(literal string) Option {
	return func(x *Client) {
		x.fallbackLiteral = literal
	}
}

func New(gqlClient *gql.Client, opts ...Option) *Client {
	client := &Client{
		gql:        gqlClient,
		cookieName: auth.DefaultCorrelationCookie,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

func (x *Client) CookieName() string {
	return x.cookieName
}

// ResolveCorrelation extracts or fabricates the correlation token for
// an inbound cookie header using the configured cookie name.
func (x *Client) ResolveCorrelation(cookieHeader string) auth.CorrelationToken {
	return ResolveCorrelationToken(cookieHeader, x.cookieName)
}

type userinfoResponse struct {
	UserInfo struct {
		ID          string   `json:"id"`
		Name        string   `json:"name"`
		Email       string   `json:"email"`
		Roles       []string `json:"roles"`
		ParentAccID string   `json:"parentaccId"`
	} `json:"userInfo"`
}

// Exchange resolves an authorization code into identity claims. The
// correlation token is forwarded as the IdP's session cookie. When the
// token is a fallback value and synthetic identities are allowed, a
// failed exchange yields a developer identity instead of an error.
func (x *Client) Exchange(ctx context.Context, code string, corr auth.CorrelationToken) (*auth.IdentityClaims, error) {
	wireValue := corr.Value
	if corr.Fallback && x.fallbackLiteral != "" {
		wireValue = x.fallbackLiteral
	}

	var resp userinfoResponse
	err := x.gql.Query(ctx, &gql.Request{
		Query:     userinfoQuery,
		Variables: map[string]any{"code": code},
		Headers:   map[string]string{"Cookie": x.cookieName + "=" + wireValue},
	}, &resp)
	if err != nil {
		if x.canSubstitute(corr) {
			logging.From(ctx).Warn("IdP exchange failed, substituting synthetic identity",
				logging.ErrAttr(err))
			return auth.SyntheticDeveloperClaims(code), nil
		}
		return nil, goerr.Wrap(err, "IdP userinfo exchange failed", goerr.T(errs.TagUserinfo))
	}

	claims := &auth.IdentityClaims{
		SubjectID:   resp.UserInfo.ID,
		DisplayName: resp.UserInfo.Name,
		Email:       resp.UserInfo.Email,
		Roles:       resp.UserInfo.Roles,
		ParentAccID: resp.UserInfo.ParentAccID,
	}
	if claims.Roles == nil {
		claims.Roles = []string{}
	}

	if err := claims.Validate(); err != nil {
		if x.canSubstitute(corr) {
			logging.From(ctx).Warn("IdP returned malformed identity, substituting synthetic identity",
				logging.ErrAttr(err))
			return auth.SyntheticDeveloperClaims(code), nil
		}
		return nil, err
	}

	return claims, nil
}

func (x *Client) canSubstitute(corr auth.CorrelationToken) bool {
	return x.allowSynthetic && corr.Fallback
}
