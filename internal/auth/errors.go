package auth

import "errors"

var (
	// ErrNotAuthorized indicates the principal does not own the resource
	ErrNotAuthorized = errors.New("not authorized")

	// OAuth provider errors
	ErrUnknownProvider   = errors.New("unknown oauth provider")
	ErrProviderExchange  = errors.New("oauth provider exchange failed")
	ErrProviderNoEmail   = errors.New("oauth provider returned no email address")
	ErrProviderMisconfig = errors.New("oauth provider misconfigured")
)
