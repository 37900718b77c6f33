// Package auth holds the request-scoped authorization context, the ownership
// check, and the external identity providers used for OAuth login.
package auth

import (
	"encoding/json"
	"fmt"
)

// Principal is the authenticated caller of a single request.
// It is built from verified token claims without a database lookup.
type Principal struct {
	// Subject is the identity email carried in the 'sub' claim.
	Subject string

	// UserID is the identity primary key carried in the 'id' claim.
	UserID uint

	// Token is the raw bearer token.
	// It is redacted in String() and MarshalJSON().
	Token string
}

// String returns a representation of the Principal with the token redacted.
func (p *Principal) String() string {
	if p == nil {
		return "<nil>"
	}
	return fmt.Sprintf("Principal{Subject:%q, UserID:%d}", p.Subject, p.UserID)
}

// MarshalJSON implements json.Marshaler and redacts the token.
func (p *Principal) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}

	type safePrincipal struct {
		Subject string `json:"subject"`
		UserID  uint   `json:"id"`
		Token   string `json:"token,omitempty"`
	}

	token := p.Token
	if token != "" {
		token = "REDACTED"
	}

	return json.Marshal(&safePrincipal{
		Subject: p.Subject,
		UserID:  p.UserID,
		Token:   token,
	})
}
