package usecase

import (
	"context"

	"github.com/passage-id/passage/pkg/domain/model/routing"
)

// PostLogin computes the routing decision for an authenticated user by
// running the decision chain against the application backend.
func (uc *UseCase) PostLogin(ctx context.Context, userID string) (routing.Decision, error) {
	return uc.chain.Run(ctx, userID)
}
