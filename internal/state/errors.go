package state

import "errors"

// Token validation failures surfaced to feed clients. Resume tokens must be
// non-negative decimals no greater than the highest token ever issued.
var (
	ErrInvalidTokenFormat = errors.New("invalid token format")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUnknownToken       = errors.New("unknown token")
)
