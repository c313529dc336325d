package http

import (
	"net/http"
	"net/url"

	"github.com/m-mizutani/goerr/v2"
	"github.com/passage-id/passage/pkg/domain/model/errs"
	"github.com/passage-id/passage/pkg/utils/logging"
)

// loginErrorCode pairs an error tag with the machine-readable code
// carried on the login redirect. goerr's tag type is unexported, so it
// is captured here through type inference rather than named directly.
type loginErrorCode[T any] struct {
	tag  T
	code string
}

func loginCode[T any](tag T, code string) loginErrorCode[T] {
	return loginErrorCode[T]{tag: tag, code: code}
}

func loginCodeTable[T any](codes ...loginErrorCode[T]) []loginErrorCode[T] {
	return codes
}

// loginErrorCodes maps error tags to the machine-readable code carried
// on the login redirect. Order matters: shape errors are more specific
// than the generic userinfo failure, and a missing CSRF token is more
// specific than a failed CSRF fetch.
var loginErrorCodes = loginCodeTable(
	loginCode(errs.TagUserinfoShape, "userinfo_shape"),
	loginCode(errs.TagUserinfo, "userinfo_gql"),
	loginCode(errs.TagCSRFToken, "csrf_token"),
	loginCode(errs.TagCSRFHTTP, "csrf"),
	loginCode(errs.TagSession, "session"),
	loginCode(errs.TagDecisionChain, "chain"),
)

// redirectLoginError converts a bridge or decision failure into a
// redirect to the login page with a short error code. Failures that
// match no known tag are unexpected and reported as server errors.
func redirectLoginError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.From(r.Context())

	for _, entry := range loginErrorCodes {
		if goerr.HasTag(err, entry.tag) {
			logger.Warn("login flow failed", "code", entry.code, logging.ErrAttr(err))
			http.Redirect(w, r, "/login?error="+url.QueryEscape(entry.code), http.StatusTemporaryRedirect)
			return
		}
	}

	errs.Handle(r.Context(), err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

// handleError maps API failures on the session framework endpoints to
// plain HTTP statuses.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.From(r.Context())

	switch {
	case goerr.HasTag(err, errs.TagInvalidRequest):
		logger.Warn("Bad Request", logging.ErrAttr(err))
		http.Error(w, err.Error(), http.StatusBadRequest)

	case goerr.HasTag(err, errs.TagCSRFToken):
		logger.Warn("Forbidden", logging.ErrAttr(err))
		http.Error(w, err.Error(), http.StatusForbidden)

	case goerr.HasTag(err, errs.TagSession), goerr.HasTag(err, errs.TagUserinfo), goerr.HasTag(err, errs.TagUserinfoShape):
		logger.Warn("Unauthorized", logging.ErrAttr(err))
		http.Error(w, err.Error(), http.StatusUnauthorized)

	case goerr.HasTag(err, errs.TagInternal):
		// Panic details and stack traces stay in logs and Sentry
		errs.Handle(r.Context(), err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)

	default:
		errs.Handle(r.Context(), err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
