package auth

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/passage-id/passage/pkg/domain/model/errs"
)

// IdentityClaims is the verified identity resolved from the IdP. The
// subject ID is the only required field; everything else is best-effort
// profile data carried into the internal session.
type IdentityClaims struct {
	SubjectID   string   `json:"id"`
	DisplayName string   `json:"name"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	ParentAccID string   `json:"parentaccId,omitempty"`
}

func (x *IdentityClaims) Validate() error {
	if x.SubjectID == "" {
		return goerr.New("identity claims without subject id", goerr.T(errs.TagUserinfoShape))
	}
	return nil
}

// SyntheticDeveloperClaims is the non-authoritative identity substituted
// when the IdP exchange fails in a deployment that explicitly allows it.
// It must never carry privileged roles.
func SyntheticDeveloperClaims(code string) *IdentityClaims {
	short := code
	if len(short) > 6 {
		short = short[:6]
	}
	return &IdentityClaims{
		SubjectID:   "dev-" + short,
		DisplayName: "Developer (" + short + ")",
		Email:       "dev@localhost",
		Roles:       []string{"user"},
	}
}
