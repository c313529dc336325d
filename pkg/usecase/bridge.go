package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/passage-id/passage/pkg/domain/model/auth"
	"github.com/passage-id/passage/pkg/domain/model/errs"
	"github.com/passage-id/passage/pkg/service/session"
	"github.com/passage-id/passage/pkg/utils/logging"
)

// HandleSSOCallback runs the full bridge sequence for one inbound
// request: resolve the correlation token, verify the identity at the
// IdP, then exchange credentials for internal session artifacts. Each
// step depends on its predecessor's output; nothing runs concurrently.
func (uc *UseCase) HandleSSOCallback(ctx context.Context, code, cookieHeader string) (*auth.SessionArtifacts, error) {
	corr := uc.idp.ResolveCorrelation(cookieHeader)
	logging.From(ctx).Debug("resolved correlation token", "fallback", corr.Fallback)

	claims, err := uc.idp.Exchange(ctx, code, corr)
	if err != nil {
		return nil, err
	}

	artifacts, err := uc.session.ExchangeCredentials(ctx, &session.Credentials{
		Code:        code,
		Correlation: corr,
		Identity:    claims,
	}, cookieHeader)
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Info("SSO bridge completed",
		"subject", claims.SubjectID,
		"status", artifacts.Status,
		"location", artifacts.RedirectLocation)
	return artifacts, nil
}

// IssueCSRFToken generates and registers a fresh single-use
// anti-forgery token.
func (uc *UseCase) IssueCSRFToken(ctx context.Context) (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", goerr.Wrap(err, "failed to generate CSRF token")
	}
	token := hex.EncodeToString(bytes)

	if err := uc.repo.PutCSRFToken(ctx, token); err != nil {
		return "", err
	}
	return token, nil
}

// ConsumeCSRFToken checks a presented token against the store and
// invalidates it.
func (uc *UseCase) ConsumeCSRFToken(ctx context.Context, token string) error {
	return uc.repo.ConsumeCSRFToken(ctx, token)
}

// CredentialInput is the form payload of the credential-callback
// endpoint. Either the direct identity fields or the code/correlation
// pair must be present.
type CredentialInput struct {
	UserID      string
	Name        string
	Email       string
	RolesJSON   string
	ParentAccID string

	Code             string
	CorrelationToken string
	Fallback         bool
}

// AuthorizeCredentials resolves the credential payload into identity
// claims. Direct identity fields win; otherwise the code is re-resolved
// through the IdP exchange.
func (uc *UseCase) AuthorizeCredentials(ctx context.Context, input *CredentialInput) (*auth.IdentityClaims, error) {
	if input.UserID != "" {
		claims := &auth.IdentityClaims{
			SubjectID:   input.UserID,
			DisplayName: input.Name,
			Email:       input.Email,
			Roles:       []string{},
			ParentAccID: input.ParentAccID,
		}
		if input.RolesJSON != "" {
			// Malformed roles degrade to an empty set
			var roles []string
			if err := json.Unmarshal([]byte(input.RolesJSON), &roles); err == nil {
				claims.Roles = roles
			}
		}
		return claims, nil
	}

	if input.Code != "" {
		return uc.idp.Exchange(ctx, input.Code, auth.CorrelationToken{
			Value:    input.CorrelationToken,
			Fallback: input.Fallback,
		})
	}

	return nil, goerr.New("credential payload without identity or code", goerr.T(errs.TagSession))
}
