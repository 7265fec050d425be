package handler

import (
	"bytes"
	"errors"
	"log/slog"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gofiber/fiber/v3"
	"github.com/shopspring/decimal"

	"github.com/cawabunga/ref-finance-stableswap-math/internal/service"
	"github.com/cawabunga/ref-finance-stableswap-math/pkg/stableswap"
)

// AmountOutHandler exposes the stateless math on caller-supplied pool state.
type AmountOutHandler struct {
	BaseHandler
	service *service.QuoteService
}

func NewAmountOutHandler(logger *slog.Logger, svc *service.QuoteService) *AmountOutHandler {
	return &AmountOutHandler{
		BaseHandler: BaseHandler{
			logger: logger,
		},
		service: svc,
	}
}

// Amount is a u128 given either as a JSON string or a bare number.
type Amount struct{ *big.Int }

func (a *Amount) UnmarshalJSON(b []byte) error {
	raw := string(bytes.Trim(b, `"`))
	v, ok := math.ParseBig256(raw)
	if raw == "" || !ok || v.Sign() < 0 {
		return errors.New("invalid amount " + string(b))
	}
	a.Int = v
	return nil
}

// Fee is a trading fee given in basis points (5) or as a fraction ("0.0005").
type Fee uint32

func (f *Fee) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		d, err := decimal.NewFromString(string(bytes.Trim(b, `"`)))
		if err != nil {
			return err
		}
		bps, err := stableswap.FeeFromDecimal(d)
		if err != nil {
			return err
		}
		*f = Fee(bps)
		return nil
	}
	bps, err := strconv.ParseUint(string(b), 10, 32)
	if err != nil {
		return err
	}
	*f = Fee(bps)
	return nil
}

type AmountOutRequest struct {
	// Not []uint8, which encoding/json reads as base64.
	TokenDecimals []int    `json:"token_decimals"`
	Amounts       []Amount `json:"amounts"`
	Amp           Amount   `json:"amp"`
	TotalFee      Fee      `json:"total_fee"`
	TokenInIndex  int      `json:"token_in_index"`
	TokenOutIndex int      `json:"token_out_index"`
	AmountIn      Amount   `json:"amount_in"`
}

type AmountOutResponse struct {
	AmountOut string `json:"amount_out"`
}

// Handle serves POST /amount-out.
func (h *AmountOutHandler) Handle() fiber.Handler {
	return func(c fiber.Ctx) error {
		var req AmountOutRequest
		if err := c.Bind().JSON(&req); err != nil {
			h.logger.Debug("failed to bind request body", "err", err)
			return ErrInvalidBody
		}

		computeReq, err := req.toCompute()
		if err != nil {
			return err
		}

		amountOut, err := h.service.Compute(computeReq)
		if err != nil {
			return h.handleServiceError(err, true)
		}

		h.logger.Debug("amount out computed", "in", computeReq.AmountIn.String(), "out", amountOut.String())
		return c.JSON(AmountOutResponse{AmountOut: amountOut.String()})
	}
}

func (r *AmountOutRequest) toCompute() (service.ComputeRequest, error) {
	if r.AmountIn.Int == nil {
		return service.ComputeRequest{}, ErrAmountRequired
	}
	if r.Amp.Int == nil {
		return service.ComputeRequest{}, NewRequired("amp")
	}

	decimals := make([]uint8, len(r.TokenDecimals))
	for i, d := range r.TokenDecimals {
		if d < 0 || d > 255 {
			return service.ComputeRequest{}, NewInvalidInput(stableswap.ErrInvalidDecimals)
		}
		decimals[i] = uint8(d)
	}
	amounts := make([]*big.Int, len(r.Amounts))
	for i, a := range r.Amounts {
		amounts[i] = a.Int
	}

	return service.ComputeRequest{
		TokenDecimals: decimals,
		Amounts:       amounts,
		Amp:           r.Amp.Int,
		TotalFee:      uint32(r.TotalFee),
		TokenInIndex:  r.TokenInIndex,
		TokenOutIndex: r.TokenOutIndex,
		AmountIn:      r.AmountIn.Int,
	}, nil
}
