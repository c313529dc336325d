package usecase

import (
	"github.com/passage-id/passage/pkg/domain/interfaces"
	"github.com/passage-id/passage/pkg/service/decision"
	"github.com/passage-id/passage/pkg/service/idp"
	"github.com/passage-id/passage/pkg/service/session"
)

// UseCase wires the SSO bridge and post-login flows together: the IdP
// exchange, the session framework client, the decision chain and the
// CSRF token store.
type UseCase struct {
	idp     *idp.Client
	session *session.Client
	chain   *decision.Chain
	repo    interfaces.Repository
}

func New(idpClient *idp.Client, sessionClient *session.Client, chain *decision.Chain, repo interfaces.Repository) *UseCase {
	return &UseCase{
		idp:     idpClient,
		session: sessionClient,
		chain:   chain,
		repo:    repo,
	}
}
