package ref

import "errors"

var (
	ErrTokenNotInPool    = errors.New("token not in pool")
	ErrMalformedPool     = errors.New("malformed pool")
	ErrMalformedMetadata = errors.New("malformed token metadata")
	ErrMissingField      = errors.New("missing field")
	ErrInvalidAmount     = errors.New("invalid amount")
)
