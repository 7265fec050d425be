package handler

import (
	"log/slog"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gofiber/fiber/v3"

	"github.com/cawabunga/ref-finance-stableswap-math/internal/service"
)

type QuoteHandler struct {
	BaseHandler
	service *service.QuoteService
}

func NewQuoteHandler(logger *slog.Logger, svc *service.QuoteService) *QuoteHandler {
	return &QuoteHandler{
		BaseHandler: BaseHandler{
			logger: logger,
		},
		service: svc,
	}
}

type QuoteQuery struct {
	PoolID   string `query:"pool_id"`
	TokenIn  string `query:"token_in"`
	TokenOut string `query:"token_out"`
	AmountIn string `query:"amount_in"`
}

type QuoteResponse struct {
	PoolID         uint64 `json:"pool_id"`
	TokenIn        string `json:"token_in"`
	TokenOut       string `json:"token_out"`
	AmountIn       string `json:"amount_in"`
	AmountOut      string `json:"amount_out"`
	HumanAmountIn  string `json:"human_amount_in"`
	HumanAmountOut string `json:"human_amount_out"`
	Rate           string `json:"rate"`
	TotalFee       uint32 `json:"total_fee"`
	Amp            string `json:"amp"`
	BlockHash      string `json:"block_hash"`
	BlockHeight    uint64 `json:"block_height"`
}

type CompareResponse struct {
	QuoteResponse
	ContractAmountOut string `json:"contract_amount_out"`
	Match             bool   `json:"match"`
}

// Quote serves GET /quote.
func (h *QuoteHandler) Quote() fiber.Handler {
	return func(c fiber.Ctx) error {
		req, err := h.parseQuery(c)
		if err != nil {
			return err
		}

		q, err := h.service.Quote(c.Context(), *req)
		if err != nil {
			return h.handleServiceError(err, false)
		}

		h.logger.Debug("quote computed", "pool", req.PoolID, "in", q.AmountIn.String(), "out", q.AmountOut.String())
		return c.JSON(newQuoteResponse(q))
	}
}

// Compare serves GET /compare.
func (h *QuoteHandler) Compare() fiber.Handler {
	return func(c fiber.Ctx) error {
		req, err := h.parseQuery(c)
		if err != nil {
			return err
		}

		cmp, err := h.service.Compare(c.Context(), *req)
		if err != nil {
			return h.handleServiceError(err, false)
		}

		return c.JSON(CompareResponse{
			QuoteResponse:     newQuoteResponse(cmp.Quote),
			ContractAmountOut: cmp.ContractAmountOut.String(),
			Match:             cmp.Match,
		})
	}
}

func (h *QuoteHandler) parseQuery(c fiber.Ctx) (*service.QuoteRequest, error) {
	var q QuoteQuery
	if err := c.Bind().Query(&q); err != nil {
		h.logger.Debug("failed to bind query parameters", "err", err)
		return nil, ErrInvalidQueryParameters
	}

	poolID, err := strconv.ParseUint(q.PoolID, 10, 64)
	if err != nil {
		return nil, ErrInvalidPoolID
	}
	for field, v := range map[string]string{"token_in": q.TokenIn, "token_out": q.TokenOut} {
		if v == "" {
			return nil, NewRequired(field)
		}
	}
	if q.TokenIn == q.TokenOut {
		return nil, ErrSameTokenBadRequest
	}
	amountIn, err := parseAmount(q.AmountIn)
	if err != nil {
		return nil, err
	}

	return &service.QuoteRequest{PoolID: poolID, TokenIn: q.TokenIn, TokenOut: q.TokenOut, AmountIn: amountIn}, nil
}

// parseAmount accepts zero, which quotes to zero.
func parseAmount(s string) (*big.Int, error) {
	if s == "" {
		return nil, ErrAmountRequired
	}
	amount, ok := math.ParseBig256(s)
	if !ok || amount.Sign() < 0 {
		return nil, ErrInvalidAmountFormat
	}
	return amount, nil
}

func newQuoteResponse(q *service.Quote) QuoteResponse {
	return QuoteResponse{
		PoolID:         q.PoolID,
		TokenIn:        q.TokenIn,
		TokenOut:       q.TokenOut,
		AmountIn:       q.AmountIn.String(),
		AmountOut:      q.AmountOut.String(),
		HumanAmountIn:  q.HumanAmountIn().String(),
		HumanAmountOut: q.HumanAmountOut().String(),
		Rate:           q.Rate().String(),
		TotalFee:       q.TotalFee,
		Amp:            q.Amp.String(),
		BlockHash:      q.BlockHash,
		BlockHeight:    q.BlockHeight,
	}
}
