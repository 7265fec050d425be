package config

import "errors"

// ErrMissingRPCEndpoint indicates that the required NEAR_RPC_URL variable is
// not set in the environment.
var ErrMissingRPCEndpoint = errors.New("missing NEAR_RPC_URL environment variable")

// ErrInvalidValue is returned when an optional variable cannot be parsed.
var ErrInvalidValue = errors.New("invalid configuration value")

// ErrInvalidTokensFile is returned when TOKENS_FILE cannot be decoded.
var ErrInvalidTokensFile = errors.New("invalid tokens file")
