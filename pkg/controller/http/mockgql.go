package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/passage-id/passage/pkg/utils/cookiehdr"
	"github.com/passage-id/passage/pkg/utils/logging"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// The mock GraphQL backends stand in for the IdP userinfo service and
// the application backend during development. Responses are
// deterministic functions of the inputs so end-to-end flows are
// reproducible.

type gqlHTTPRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func writeGQLJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeGQLErrors(w http.ResponseWriter, status int, messages ...string) {
	errors := make([]map[string]string, 0, len(messages))
	for _, m := range messages {
		errors = append(errors, map[string]string{"message": m})
	}
	writeGQLJSON(w, status, map[string]any{"errors": errors})
}

// firstFieldName returns the first top-level field requested by the
// query document, which is enough to route the supported operations.
func firstFieldName(query string) string {
	doc, err := parser.ParseQuery(&ast.Source{Input: query})
	if err != nil {
		return ""
	}
	for _, op := range doc.Operations {
		for _, sel := range op.SelectionSet {
			if field, ok := sel.(*ast.Field); ok {
				return field.Name
			}
		}
	}
	return ""
}

func mockIdPHandler(ssoCookieName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gqlHTTPRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeGQLErrors(w, http.StatusBadRequest, "bad request")
			return
		}

		if firstFieldName(req.Query) != "userInfo" {
			writeGQLErrors(w, http.StatusBadRequest, "Unsupported operation")
			return
		}

		// The mock enforces the same precondition as the real IdP: the
		// correlation cookie has to be present.
		if _, ok := cookiehdr.Get(r.Header.Get("Cookie"), ssoCookieName); !ok {
			writeGQLErrors(w, http.StatusUnauthorized, "SSO missing")
			return
		}

		code, _ := req.Variables["code"].(string)
		if code == "" {
			code = "000000"
		}
		short := code
		if len(short) > 6 {
			short = short[:6]
		}

		roles := []string{"user"}
		if strings.HasSuffix(short, "1") {
			roles = append(roles, "viewer")
		}

		logging.From(r.Context()).Debug("mock IdP issuing identity", "code", short)
		writeGQLJSON(w, http.StatusOK, map[string]any{
			"data": map[string]any{
				"userInfo": map[string]any{
					"id":    "user-" + short,
					"name":  "User " + short,
					"email": "user" + short + "@example.com",
					"roles": roles,
				},
			},
		})
	}
}

func mockAppHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gqlHTTPRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeGQLErrors(w, http.StatusBadRequest, "bad request")
			return
		}

		switch firstFieldName(req.Query) {
		case "profile":
			userID, _ := req.Variables["userId"].(string)
			writeGQLJSON(w, http.StatusOK, map[string]any{
				"data": map[string]any{
					"profile": map[string]any{"complete": len(userID)%2 == 1},
				},
			})

		case "entitlements":
			userID, _ := req.Variables["userId"].(string)
			features := []string{"kpi.read", "map.view"}
			if strings.Contains(userID, "8") {
				features = append(features, "force.external")
			}
			writeGQLJSON(w, http.StatusOK, map[string]any{
				"data": map[string]any{
					"entitlements": map[string]any{"features": features},
				},
			})

		case "dashboardDecision":
			forceExternal := false
			if features, ok := req.Variables["features"].([]any); ok {
				for _, f := range features {
					if f == "force.external" {
						forceExternal = true
					}
				}
			}
			writeGQLJSON(w, http.StatusOK, map[string]any{
				"data": map[string]any{
					"dashboardDecision": map[string]any{"forceExternal": forceExternal},
				},
			})

		default:
			writeGQLErrors(w, http.StatusBadRequest, "Unsupported operation")
		}
	}
}
