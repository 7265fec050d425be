package service

import "errors"

var (
	ErrSameToken     = errors.New("token_in and token_out are equal")
	ErrInvalidAmount = errors.New("amount must be a non-negative integer")
	ErrNotStablePool = errors.New("pool is not a stable swap pool")
)
