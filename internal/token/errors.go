package token

import "errors"

var (
	// ErrTokenGeneration indicates token generation failed
	ErrTokenGeneration = errors.New("failed to generate token")

	// ErrInvalidToken indicates the token is malformed, tampered with, expired,
	// or signed with a different key
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken indicates the token has expired. It is always wrapped
	// together with ErrInvalidToken.
	ErrExpiredToken = errors.New("token expired")
)
