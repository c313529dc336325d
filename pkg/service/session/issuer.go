package session

import (
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"
	"github.com/passage-id/passage/pkg/domain/model/auth"
	"github.com/passage-id/passage/pkg/domain/model/errs"
)

// Issuer signs and verifies the session JWT carried by the session
// cookie. Sessions are stateless: everything the application needs
// lives in the token claims.
type Issuer struct {
	secret []byte
	maxAge time.Duration
}

func NewIssuer(secret string) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		maxAge: auth.SessionMaxAge,
	}
}

func (x *Issuer) MaxAge() time.Duration {
	return x.maxAge
}

// Issue mints a signed session token for the given identity.
func (x *Issuer) Issue(claims *auth.IdentityClaims) (string, error) {
	if err := claims.Validate(); err != nil {
		return "", err
	}

	now := time.Now()
	builder := jwt.NewBuilder().
		Subject(claims.SubjectID).
		IssuedAt(now).
		Expiration(now.Add(x.maxAge)).
		Claim("name", claims.DisplayName).
		Claim("email", claims.Email).
		Claim("roles", claims.Roles)
	if claims.ParentAccID != "" {
		builder = builder.Claim("parentaccId", claims.ParentAccID)
	}

	token, err := builder.Build()
	if err != nil {
		return "", goerr.Wrap(err, "failed to build session token")
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, x.secret))
	if err != nil {
		return "", goerr.Wrap(err, "failed to sign session token")
	}

	return string(signed), nil
}

// Verify parses and validates a session token and returns its claims.
func (x *Issuer) Verify(raw string) (*auth.SessionClaims, error) {
	token, err := jwt.Parse([]byte(raw), jwt.WithKey(jwa.HS256, x.secret), jwt.WithValidate(true))
	if err != nil {
		return nil, goerr.Wrap(err, "invalid session token", goerr.T(errs.TagSession))
	}

	claims := &auth.SessionClaims{
		Subject: token.Subject(),
	}
	if claims.Subject == "" {
		return nil, goerr.New("session token without subject", goerr.T(errs.TagSession))
	}

	if v, ok := token.Get("name"); ok {
		claims.Name, _ = v.(string)
	}
	if v, ok := token.Get("email"); ok {
		claims.Email, _ = v.(string)
	}
	if v, ok := token.Get("parentaccId"); ok {
		claims.ParentAccID, _ = v.(string)
	}
	if v, ok := token.Get("roles"); ok {
		if raw, ok := v.([]any); ok {
			for _, r := range raw {
				if s, ok := r.(string); ok {
					claims.Roles = append(claims.Roles, s)
				}
			}
		}
	}

	return claims, nil
}
