// Package handler defines HTTP request handlers and related utilities.
package handler

import (
	"errors"
	"log/slog"

	"github.com/cawabunga/ref-finance-stableswap-math/internal/ref"
	"github.com/cawabunga/ref-finance-stableswap-math/internal/service"
)

// BaseHandler provides common dependencies for HTTP handlers.
type BaseHandler struct {
	logger *slog.Logger
}

// handleServiceError maps service, reader and math errors to HTTP errors.
// Math validation errors on live pools are the pool's fault (422), on
// caller-supplied pools the caller's (400).
func (h *BaseHandler) handleServiceError(err error, callerPool bool) error {
	switch {
	case errors.Is(err, service.ErrSameToken):
		return ErrSameTokenBadRequest
	case errors.Is(err, service.ErrInvalidAmount):
		return ErrInvalidAmountFormat
	case errors.Is(err, service.ErrNotStablePool):
		return ErrNotStablePoolBadRequest
	case errors.Is(err, ref.ErrTokenNotInPool):
		return ErrTokenNotInPoolBadRequest
	case solverFailure(err):
		return NewInvalidPoolState(err)
	case stableswapError(err) && callerPool:
		return NewInvalidInput(err)
	case stableswapError(err):
		return NewInvalidPoolState(err)
	case upstreamFailure(err):
		h.logger.Error("upstream request failed", "err", err)
		return ErrUpstreamUnavailable
	default:
		h.logger.Error("service quote failed", "err", err)
		return ErrEstimationFailedInternal
	}
}
