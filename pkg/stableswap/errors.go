package stableswap

import "errors"

var (
	ErrInvalidIndex       = errors.New("invalid token index")
	ErrInvalidDecimals    = errors.New("invalid token decimals")
	ErrDidNotConverge     = errors.New("newton iteration did not converge")
	ErrArithmeticOverflow = errors.New("value overflows u128")
	ErrInvalidAmp         = errors.New("amplification coefficient out of range")
	ErrInvalidFee         = errors.New("fee must be less than fee divisor")
	ErrLengthMismatch     = errors.New("decimals and amounts length mismatch")
	ErrNegativeAmount     = errors.New("amount must not be negative")
)
