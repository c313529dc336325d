package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/passage-id/passage/pkg/domain/interfaces"
	"github.com/passage-id/passage/pkg/domain/model/errs"
	"github.com/passage-id/passage/pkg/utils/clock"
)

// csrfTokenTTL bounds how long an unconsumed CSRF token stays valid.
const csrfTokenTTL = 10 * time.Minute

type Memory struct {
	mu         sync.RWMutex
	csrfTokens map[string]time.Time
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		csrfTokens: make(map[string]time.Time),
	}
}

func (r *Memory) PutCSRFToken(ctx context.Context, token string) error {
	if token == "" {
		return goerr.New("empty CSRF token")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.csrfTokens[token] = clock.Now(ctx).Add(csrfTokenTTL)
	return nil
}

func (r *Memory) ConsumeCSRFToken(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	expiresAt, ok := r.csrfTokens[token]
	if !ok {
		return goerr.New("unknown CSRF token", goerr.T(errs.TagCSRFToken))
	}
	delete(r.csrfTokens, token)

	if clock.Now(ctx).After(expiresAt) {
		return goerr.New("expired CSRF token", goerr.T(errs.TagCSRFToken))
	}
	return nil
}
