package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/cawabunga/ref-finance-stableswap-math/internal/near"
	"github.com/cawabunga/ref-finance-stableswap-math/internal/ref"
	"github.com/cawabunga/ref-finance-stableswap-math/pkg/stableswap"
)

// ErrInvalidQueryParameters indicates that the request query string could not
// be parsed into the expected structure.
var ErrInvalidQueryParameters = fiber.NewError(fiber.StatusBadRequest, "invalid query parameters")

// ErrInvalidBody indicates that the request body is not the expected JSON.
var ErrInvalidBody = fiber.NewError(fiber.StatusBadRequest, "invalid request body")

// ErrAmountRequired is returned when the amount_in parameter is missing.
var ErrAmountRequired = fiber.NewError(fiber.StatusBadRequest, "amount_in is required")

// ErrInvalidAmountFormat is returned when the amount cannot be parsed as a
// non-negative base-10 integer.
var ErrInvalidAmountFormat = fiber.NewError(fiber.StatusBadRequest, "invalid amount format")

// ErrInvalidPoolID is returned when pool_id is missing or not an integer.
var ErrInvalidPoolID = fiber.NewError(fiber.StatusBadRequest, "pool_id must be a non-negative integer")

// ErrSameTokenBadRequest maps a same-token validation failure to a 400 error.
var ErrSameTokenBadRequest = fiber.NewError(fiber.StatusBadRequest, "token_in and token_out cannot be the same")

// ErrNotStablePoolBadRequest maps a quote against a non-stable pool to a 400 error.
var ErrNotStablePoolBadRequest = fiber.NewError(fiber.StatusBadRequest, "pool is not a stable swap pool")

// ErrTokenNotInPoolBadRequest maps an unknown token to a 400 error.
var ErrTokenNotInPoolBadRequest = fiber.NewError(fiber.StatusBadRequest, "token is not part of the pool")

// ErrUpstreamUnavailable signals a NEAR RPC failure or an unreadable contract
// response.
var ErrUpstreamUnavailable = fiber.NewError(fiber.StatusBadGateway, "near rpc request failed")

// ErrEstimationFailedInternal signals a generic server-side estimation error.
var ErrEstimationFailedInternal = fiber.NewError(fiber.StatusInternalServerError, "estimation failed")

// NewRequired returns a 400 Bad Request for a missing field.
func NewRequired(field string) error {
	return fiber.NewError(fiber.StatusBadRequest, field+" is required")
}

// NewInvalidPoolState wraps a pool the math rejects into a 422 error.
func NewInvalidPoolState(err error) error {
	return fiber.NewError(fiber.StatusUnprocessableEntity, "cannot quote pool: "+err.Error())
}

// NewInvalidInput wraps a rejected caller-supplied pool into a 400 error.
func NewInvalidInput(err error) error {
	return fiber.NewError(fiber.StatusBadRequest, "invalid input: "+err.Error())
}

// solverFailure reports errors raised while iterating, as opposed to input
// validation.
func solverFailure(err error) bool {
	return errors.Is(err, stableswap.ErrDidNotConverge) || errors.Is(err, stableswap.ErrArithmeticOverflow)
}

func stableswapError(err error) bool {
	for _, target := range []error{
		stableswap.ErrInvalidIndex,
		stableswap.ErrInvalidDecimals,
		stableswap.ErrInvalidAmp,
		stableswap.ErrInvalidFee,
		stableswap.ErrLengthMismatch,
		stableswap.ErrNegativeAmount,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func upstreamFailure(err error) bool {
	var rpcErr *near.RPCError
	if errors.As(err, &rpcErr) {
		return true
	}
	for _, target := range []error{
		near.ErrMaxRetries,
		near.ErrEmptyResult,
		near.ErrInvalidResponse,
		near.ErrFunctionCall,
		ref.ErrMalformedPool,
		ref.ErrMalformedMetadata,
		ref.ErrMissingField,
		ref.ErrInvalidAmount,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
