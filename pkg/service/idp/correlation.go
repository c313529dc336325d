package idp

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/m-mizutani/goerr/v2"
	"github.com/passage-id/passage/pkg/domain/model/auth"
	"github.com/passage-id/passage/pkg/utils/cookiehdr"
)

// ResolveCorrelationToken extracts the SSO correlation value from the
// inbound Cookie header. A missing cookie is substituted with a fresh
// random token marked as fallback; the result is always non-empty.
func ResolveCorrelationToken(cookieHeader, cookieName string) auth.CorrelationToken {
	if cookieName == "" {
		cookieName = auth.DefaultCorrelationCookie
	}

	if value, ok := cookiehdr.Get(cookieHeader, cookieName); ok && value != "" {
		return auth.CorrelationToken{Value: value}
	}

	return auth.CorrelationToken{
		Value:    generateFallbackToken(),
		Fallback: true,
	}
}

func generateFallbackToken() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		panic(goerr.Wrap(err, "failed to generate fallback correlation token"))
	}
	return hex.EncodeToString(bytes)
}
