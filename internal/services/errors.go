package services

import (
	"errors"

	"github.com/go-authgate/tokengate/internal/token"
)

var (
	// ErrInvalidToken is returned when a refresh token fails signature or expiry checks
	ErrInvalidToken = token.ErrInvalidToken

	// ErrTokenNotRecognized is returned when a well-formed refresh token is not the
	// one currently stored for any identity
	ErrTokenNotRecognized = errors.New("refresh token not recognized")

	// ErrIdentityNotFound is returned when a token refers to an identity that no longer exists
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrIdentityLinkConflict is returned when an OAuth login's email belongs to
	// an identity created through a different sign-in method
	ErrIdentityLinkConflict = errors.New("email is registered with another sign-in method")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidSignup      = errors.New("invalid signup request")

	ErrArticleNotFound = errors.New("article not found")
	ErrInvalidArticle  = errors.New("article title and content are required")
)
