// Package decision evaluates the post-login decision chain: profile
// completeness, entitlements, then the dashboard decision.
package decision

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/passage-id/passage/pkg/domain/model/errs"
	"github.com/passage-id/passage/pkg/domain/model/routing"
	"github.com/passage-id/passage/pkg/service/gql"
	"github.com/passage-id/passage/pkg/utils/logging"
)

const profileQuery = `
  query GetProfile($userId: ID!) {
    profile(userId: $userId) { complete }
  }
`

const entitlementsQuery = `
  query GetEntitlements($userId: ID!) {
    entitlements(userId: $userId) { features }
  }
`

const dashboardMutation = `
  mutation ResolveDashboard($features: [String!]!) {
    dashboardDecision(features: $features) { forceExternal }
  }
`

type Chain struct {
	gql *gql.Client
}

func New(gqlClient *gql.Client) *Chain {
	return &Chain{gql: gqlClient}
}

// Run executes the three stages in order, short-circuiting on the
// first decisive signal. Each stage runs exactly once; any stage
// failure aborts the chain without a default decision.
func (x *Chain) Run(ctx context.Context, userID string) (routing.Decision, error) {
	logger := logging.From(ctx)

	var profile struct {
		Profile struct {
			Complete bool `json:"complete"`
		} `json:"profile"`
	}
	err := x.gql.Query(ctx, &gql.Request{
		Query:     profileQuery,
		Variables: map[string]any{"userId": userID},
	}, &profile)
	if err != nil {
		return "", goerr.Wrap(err, "profile stage failed",
			goerr.T(errs.TagDecisionChain), goerr.V("user_id", userID))
	}
	logger.Debug("decision chain: profile", "complete", profile.Profile.Complete)

	if !profile.Profile.Complete {
		return routing.Onboarding, nil
	}

	var ent struct {
		Entitlements struct {
			Features []string `json:"features"`
		} `json:"entitlements"`
	}
	err = x.gql.Query(ctx, &gql.Request{
		Query:     entitlementsQuery,
		Variables: map[string]any{"userId": userID},
	}, &ent)
	if err != nil {
		return "", goerr.Wrap(err, "entitlement stage failed",
			goerr.T(errs.TagDecisionChain), goerr.V("user_id", userID))
	}
	features := ent.Entitlements.Features
	if features == nil {
		features = []string{}
	}
	logger.Debug("decision chain: entitlements", "features", features)

	var dash struct {
		DashboardDecision struct {
			ForceExternal bool `json:"forceExternal"`
		} `json:"dashboardDecision"`
	}
	err = x.gql.Query(ctx, &gql.Request{
		Query:     dashboardMutation,
		Variables: map[string]any{"features": features},
	}, &dash)
	if err != nil {
		return "", goerr.Wrap(err, "dashboard stage failed",
			goerr.T(errs.TagDecisionChain), goerr.V("user_id", userID))
	}
	logger.Debug("decision chain: dashboard", "force_external", dash.DashboardDecision.ForceExternal)

	if dash.DashboardDecision.ForceExternal {
		return routing.ExternalGoogle, nil
	}
	return routing.Dashboard, nil
}
