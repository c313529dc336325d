package interfaces

import "context"

// Repository stores single-use CSRF tokens issued by the session
// framework. Tokens live only for the duration of one bridging flow;
// Consume removes the token so a replayed credential POST fails.
type Repository interface {
	PutCSRFToken(ctx context.Context, token string) error
	ConsumeCSRFToken(ctx context.Context, token string) error
}
