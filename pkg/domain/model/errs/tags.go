package errs

import "github.com/m-mizutani/goerr/v2"

var (
	// Request-level errors
	TagInvalidRequest = goerr.NewTag("invalid_request") // 400, e.g. missing authorization code

	// GraphQL client errors
	TagGQLTransport   = goerr.NewTag("gql_transport")    // non-2xx HTTP response
	TagGQLTimeout     = goerr.NewTag("gql_timeout")      // call exceeded its deadline
	TagGQLResponse    = goerr.NewTag("gql_response")     // non-empty errors array
	TagGQLMissingData = goerr.NewTag("gql_missing_data") // response without data field

	// SSO bridge errors, each mapped to a login error code
	TagUserinfo      = goerr.NewTag("userinfo_gql")   // IdP exchange call failed
	TagUserinfoShape = goerr.NewTag("userinfo_shape") // IdP response lacks subject id
	TagCSRFHTTP      = goerr.NewTag("csrf")           // CSRF endpoint returned non-2xx
	TagCSRFToken     = goerr.NewTag("csrf_token")     // CSRF body lacks token
	TagSession       = goerr.NewTag("session")        // no valid session on postLogin
	TagDecisionChain = goerr.NewTag("chain")          // decision chain stage failed

	// Server errors
	TagInternal = goerr.NewTag("internal")
)
