// Package service contains the quoting logic behind the HTTP handlers: it
// loads pool state from the exchange contract and runs the stable swap math.
package service

import (
	"log/slog"

	"github.com/cawabunga/ref-finance-stableswap-math/internal/metrics"
)

// BaseService provides common dependencies for service types.
type BaseService struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}
