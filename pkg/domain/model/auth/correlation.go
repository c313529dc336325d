package auth

// DefaultCorrelationCookie is the cookie name shared with the upstream
// IdP deployment unless overridden by configuration.
const DefaultCorrelationCookie = "iPlanetDirectoryPro"

// CorrelationToken is the SSO correlation value extracted from the
// inbound request, or a freshly generated substitute when the cookie is
// absent. It is created once per request and never mutated.
type CorrelationToken struct {
	Value    string
	Fallback bool
}
