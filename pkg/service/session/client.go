// Package session talks to the internal session framework: it fetches
// anti-forgery tokens, performs the credential exchange that mints a
// session, and signs/verifies the session JWT the framework issues.
package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/passage-id/passage/pkg/domain/model/auth"
	"github.com/passage-id/passage/pkg/domain/model/errs"
	"github.com/passage-id/passage/pkg/utils/cookiehdr"
	"github.com/passage-id/passage/pkg/utils/safe"
)

const (
	// CSRFPath issues the anti-forgery token required before a
	// credential POST.
	CSRFPath = "/api/auth/csrf"

	// CredentialsCallbackPath accepts the credential exchange and
	// responds with a session cookie plus redirect.
	CredentialsCallbackPath = "/api/auth/callback/credentials"
)

// DefaultTimeout bounds each framework call individually; the CSRF
// fetch and the credential POST get their own deadlines.
const DefaultTimeout = 8 * time.Second

type Client struct {
	baseURL         string
	defaultCallback string
	httpClient      *http.Client
	timeout         time.Duration
}

type Option func(*Client)

func WithDefaultCallback(callbackURL string) Option {
	return func(x *Client) {
		x.defaultCallback = callbackURL
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(x *Client) {
		x.httpClient = client
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(x *Client) {
		x.timeout = timeout
	}
}

// New creates a client for the session framework at baseURL. Redirects
// are never followed: the framework signals its outcome through the
// raw status and Location header, which the bridge forwards verbatim.
func New(baseURL string, opts ...Option) *Client {
	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// FetchCSRF obtains a fresh anti-forgery token, forwarding the inbound
// cookie header so the framework can bind the token to the caller.
func (x *Client) FetchCSRF(ctx context.Context, inboundCookies string) (*auth.CSRFContext, error) {
	ctx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, x.baseURL+CSRFPath, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create CSRF request")
	}
	if inboundCookies != "" {
		req.Header.Set("Cookie", inboundCookies)
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch CSRF token", goerr.T(errs.TagCSRFHTTP))
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, goerr.New("CSRF endpoint returned non-success status",
			goerr.T(errs.TagCSRFHTTP),
			goerr.V("status_code", resp.StatusCode))
	}

	var body struct {
		CSRFToken string `json:"csrfToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, goerr.Wrap(err, "failed to decode CSRF response", goerr.T(errs.TagCSRFToken))
	}
	if body.CSRFToken == "" {
		return nil, goerr.New("CSRF response has no token", goerr.T(errs.TagCSRFToken))
	}

	var pairs []string
	for _, header := range resp.Header.Values("Set-Cookie") {
		pairs = append(pairs, cookiehdr.SplitSetCookie(header)...)
	}

	return &auth.CSRFContext{
		Token:       body.CSRFToken,
		CookiePairs: pairs,
	}, nil
}

// Credentials is what the bridge forwards into the credential exchange:
// the code/correlation pair, optionally accompanied by the identity the
// bridge already resolved (the framework trusts those fields when
// present and re-resolves the code otherwise).
type Credentials struct {
	Code        string
	Correlation auth.CorrelationToken
	Identity    *auth.IdentityClaims
	CallbackURL string
}

// ExchangeCredentials runs the CSRF-protected credential POST and
// returns the session artifacts. The POST outcome is not validated
// here: a non-redirect response is still handed back as-is, since the
// framework is the authority on success signaling.
func (x *Client) ExchangeCredentials(ctx context.Context, creds *Credentials, inboundCookies string) (*auth.SessionArtifacts, error) {
	csrfCtx, err := x.FetchCSRF(ctx, inboundCookies)
	if err != nil {
		return nil, err
	}

	callbackURL := creds.CallbackURL
	if callbackURL == "" {
		callbackURL = x.defaultCallback
	}

	form := url.Values{}
	form.Set("csrfToken", csrfCtx.Token)
	form.Set("code", creds.Code)
	form.Set("correlationToken", creds.Correlation.Value)
	if creds.Correlation.Fallback {
		form.Set("fallback", "true")
	}
	if creds.Identity != nil {
		roles, err := json.Marshal(creds.Identity.Roles)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to marshal roles")
		}
		form.Set("userId", creds.Identity.SubjectID)
		form.Set("name", creds.Identity.DisplayName)
		form.Set("email", creds.Identity.Email)
		form.Set("roles", string(roles))
		if creds.Identity.ParentAccID != "" {
			form.Set("parentaccId", creds.Identity.ParentAccID)
		}
	}

	postCtx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()

	endpoint := x.baseURL + CredentialsCallbackPath + "?callbackUrl=" + url.QueryEscape(callbackURL)
	req, err := http.NewRequestWithContext(postCtx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create credential request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if merged := cookiehdr.Merge(inboundCookies, csrfCtx.CookiePairs...); merged != "" {
		req.Header.Set("Cookie", merged)
	}

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "credential exchange failed", goerr.T(errs.TagSession))
	}
	defer safe.Close(ctx, resp.Body)

	location := resp.Header.Get("Location")
	if location == "" {
		location = callbackURL
	}

	return &auth.SessionArtifacts{
		RedirectLocation: location,
		Status:           resp.StatusCode,
		SetCookie:        resp.Header.Values("Set-Cookie"),
	}, nil
}
