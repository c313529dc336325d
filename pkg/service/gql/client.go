// Package gql is a minimal typed GraphQL caller. Each call is a single
// POST with its own deadline; failures are tagged so callers can decide
// whether to fall back without inspecting error strings.
package gql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/passage-id/passage/pkg/domain/model/errs"
	"github.com/passage-id/passage/pkg/utils/safe"
)

// DefaultTimeout bounds a single GraphQL call unless the request
// overrides it.
const DefaultTimeout = 8 * time.Second

type Request struct {
	Query     string
	Variables map[string]any
	Headers   map[string]string
	Timeout   time.Duration
}

type Client struct {
	endpoint      string
	authorization string
	httpClient    *http.Client
}

type Option func(*Client)

// WithAuthorization sets a static authorization header sent on every
// call.
func WithAuthorization(value string) Option {
	return func(x *Client) {
		x.authorization = value
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(x *Client) {
		x.httpClient = client
	}
}

func New(endpoint string, opts ...Option) *Client {
	client := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type graphqlError struct {
	Message string `json:"message"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

// Query performs a single query or mutation and decodes the data
// payload into out. There are no retries: a failed call is reported as
// an error and the caller decides how to proceed.
func (x *Client) Query(ctx context.Context, req *Request, out any) error {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(map[string]any{
		"query":     req.Query,
		"variables": req.Variables,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to marshal GraphQL request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, x.endpoint, bytes.NewReader(body))
	if err != nil {
		return goerr.Wrap(err, "failed to create GraphQL request", goerr.V("endpoint", x.endpoint))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if x.authorization != "" {
		httpReq.Header.Set("Authorization", x.authorization)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := x.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return goerr.Wrap(err, "GraphQL call timed out",
				goerr.T(errs.TagGQLTimeout),
				goerr.V("endpoint", x.endpoint),
				goerr.V("timeout", timeout))
		}
		return goerr.Wrap(err, "failed to send GraphQL request",
			goerr.T(errs.TagGQLTransport),
			goerr.V("endpoint", x.endpoint))
	}
	defer safe.Close(ctx, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return goerr.New("GraphQL endpoint returned non-success status",
			goerr.T(errs.TagGQLTransport),
			goerr.V("endpoint", x.endpoint),
			goerr.V("status_code", resp.StatusCode),
			goerr.V("status", resp.Status),
			goerr.V("body", string(respBody)))
	}

	var gqlResp response
	if err := json.NewDecoder(resp.Body).Decode(&gqlResp); err != nil {
		return goerr.Wrap(err, "failed to decode GraphQL response",
			goerr.T(errs.TagGQLTransport),
			goerr.V("endpoint", x.endpoint))
	}

	if len(gqlResp.Errors) > 0 {
		messages := make([]string, 0, len(gqlResp.Errors))
		for _, e := range gqlResp.Errors {
			messages = append(messages, e.Message)
		}
		return goerr.New("GraphQL response has errors",
			goerr.T(errs.TagGQLResponse),
			goerr.V("endpoint", x.endpoint),
			goerr.V("messages", strings.Join(messages, " | ")))
	}

	if len(gqlResp.Data) == 0 || string(gqlResp.Data) == "null" {
		return goerr.New("GraphQL response missing data",
			goerr.T(errs.TagGQLMissingData),
			goerr.V("endpoint", x.endpoint))
	}

	if err := json.Unmarshal(gqlResp.Data, out); err != nil {
		return goerr.Wrap(err, "failed to unmarshal GraphQL data",
			goerr.T(errs.TagGQLMissingData),
			goerr.V("endpoint", x.endpoint))
	}

	return nil
}
