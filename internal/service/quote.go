package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cawabunga/ref-finance-stableswap-math/internal/metrics"
	"github.com/cawabunga/ref-finance-stableswap-math/internal/near"
	"github.com/cawabunga/ref-finance-stableswap-math/internal/ref"
	"github.com/cawabunga/ref-finance-stableswap-math/pkg/stableswap"
)

// PoolReader loads exchange state. *ref.Reader satisfies it.
type PoolReader interface {
	GetPool(ctx context.Context, block near.BlockRef, poolID uint64) (*ref.PoolInfo, error)
	GetReturn(ctx context.Context, block near.BlockRef, poolID uint64, tokenIn string, amountIn *big.Int, tokenOut string) (*big.Int, error)
	TokenDecimals(ctx context.Context, block near.BlockRef, token string) (uint8, error)
}

// QuoteService quotes stable swap pools of the Ref Finance exchange.
type QuoteService struct {
	BaseService
	reader PoolReader

	mu       sync.RWMutex
	decimals map[string]uint8
}

// NewQuoteService constructs a QuoteService. overrides pins the decimals of
// known tokens; any other token is resolved through ft_metadata once and then
// remembered.
func NewQuoteService(logger *slog.Logger, m *metrics.Metrics, reader PoolReader, overrides map[string]uint8) *QuoteService {
	decimals := make(map[string]uint8, len(overrides))
	for k, v := range overrides {
		decimals[k] = v
	}
	return &QuoteService{
		BaseService: BaseService{logger: logger, metrics: m},
		reader:      reader,
		decimals:    decimals,
	}
}

// QuoteRequest identifies a swap on a live pool.
type QuoteRequest struct {
	PoolID   uint64
	TokenIn  string
	TokenOut string
	AmountIn *big.Int
}

// Quote is a locally computed swap quote pinned to one block.
type Quote struct {
	PoolID           uint64
	TokenIn          string
	TokenOut         string
	AmountIn         *big.Int
	AmountOut        *big.Int
	TokenInDecimals  uint8
	TokenOutDecimals uint8
	TotalFee         uint32
	Amp              *big.Int
	BlockHash        string
	BlockHeight      uint64
}

// Rate returns the output received per whole input token.
func (q *Quote) Rate() decimal.Decimal {
	if q.AmountIn == nil || q.AmountIn.Sign() == 0 {
		return decimal.Zero
	}
	in := decimal.NewFromBigInt(q.AmountIn, -int32(q.TokenInDecimals))
	out := decimal.NewFromBigInt(q.AmountOut, -int32(q.TokenOutDecimals))
	return out.DivRound(in, 18)
}

// HumanAmountIn renders AmountIn in whole tokens.
func (q *Quote) HumanAmountIn() decimal.Decimal {
	return decimal.NewFromBigInt(q.AmountIn, -int32(q.TokenInDecimals))
}

// HumanAmountOut renders AmountOut in whole tokens.
func (q *Quote) HumanAmountOut() decimal.Decimal {
	return decimal.NewFromBigInt(q.AmountOut, -int32(q.TokenOutDecimals))
}

// Comparison pairs a local quote with the contract's own get_return answer
// at the same block.
type Comparison struct {
	*Quote
	ContractAmountOut *big.Int
	Match             bool
}

// Quote loads the pool at the latest final block and computes the amount out.
func (s *QuoteService) Quote(ctx context.Context, req QuoteRequest) (q *Quote, err error) {
	started := time.Now()
	defer func() { s.metrics.ObserveQuote("quote", started, err) }()

	return s.quote(ctx, req)
}

func (s *QuoteService) quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	s.logger.Debug("quoting swap", "pool", req.PoolID, "in", req.TokenIn, "out", req.TokenOut, "amount", req.AmountIn)

	if req.TokenIn == req.TokenOut {
		return nil, ErrSameToken
	}
	if req.AmountIn == nil || req.AmountIn.Sign() < 0 {
		return nil, ErrInvalidAmount
	}

	pool, err := s.reader.GetPool(ctx, near.Final(), req.PoolID)
	if err != nil {
		return nil, fmt.Errorf("get pool %d: %w", req.PoolID, err)
	}
	if pool.Kind != ref.KindStableSwap {
		return nil, fmt.Errorf("%w: pool %d is %s", ErrNotStablePool, req.PoolID, pool.Kind)
	}
	in, err := pool.TokenIndex(req.TokenIn)
	if err != nil {
		return nil, err
	}
	out, err := pool.TokenIndex(req.TokenOut)
	if err != nil {
		return nil, err
	}

	block := near.Final()
	if pool.BlockHash != "" {
		block = near.AtBlock(pool.BlockHash)
	}
	decimals, err := s.tokenDecimals(ctx, block, pool.TokenAccountIDs)
	if err != nil {
		return nil, err
	}

	amountOut, err := stableswap.GetAmountOut(decimals, pool.Amounts, pool.Amp, pool.TotalFee, in, out, req.AmountIn)
	if err != nil {
		return nil, fmt.Errorf("pool %d: %w", req.PoolID, err)
	}

	s.logger.Debug("amount out computed", "pool", req.PoolID, "block", pool.BlockHeight, "out", amountOut.String())
	return &Quote{
		PoolID:           req.PoolID,
		TokenIn:          req.TokenIn,
		TokenOut:         req.TokenOut,
		AmountIn:         new(big.Int).Set(req.AmountIn),
		AmountOut:        amountOut,
		TokenInDecimals:  decimals[in],
		TokenOutDecimals: decimals[out],
		TotalFee:         pool.TotalFee,
		Amp:              pool.Amp,
		BlockHash:        pool.BlockHash,
		BlockHeight:      pool.BlockHeight,
	}, nil
}

// Compare quotes locally and asks the contract for get_return at the block
// the pool state was read from.
func (s *QuoteService) Compare(ctx context.Context, req QuoteRequest) (c *Comparison, err error) {
	started := time.Now()
	defer func() { s.metrics.ObserveQuote("compare", started, err) }()

	q, err := s.quote(ctx, req)
	if err != nil {
		return nil, err
	}

	block := near.Final()
	if q.BlockHash != "" {
		block = near.AtBlock(q.BlockHash)
	}
	contractOut, err := s.reader.GetReturn(ctx, block, req.PoolID, req.TokenIn, req.AmountIn, req.TokenOut)
	if err != nil {
		return nil, fmt.Errorf("get return: %w", err)
	}

	c = &Comparison{Quote: q, ContractAmountOut: contractOut, Match: contractOut.Cmp(q.AmountOut) == 0}
	if !c.Match {
		if s.metrics != nil {
			s.metrics.QuoteMismatches.Inc()
		}
		s.logger.Warn("quote differs from contract", "pool", req.PoolID, "block", q.BlockHash, "local", q.AmountOut.String(), "contract", contractOut.String())
	}
	return c, nil
}

// ComputeRequest carries the raw inputs of the stable swap math.
type ComputeRequest struct {
	TokenDecimals []uint8
	Amounts       []*big.Int
	Amp           *big.Int
	TotalFee      uint32
	TokenInIndex  int
	TokenOutIndex int
	AmountIn      *big.Int
}

// Compute runs the stable swap math on caller-supplied pool state.
func (s *QuoteService) Compute(req ComputeRequest) (out *big.Int, err error) {
	started := time.Now()
	defer func() { s.metrics.ObserveQuote("amount_out", started, err) }()

	return stableswap.GetAmountOut(req.TokenDecimals, req.Amounts, req.Amp, req.TotalFee, req.TokenInIndex, req.TokenOutIndex, req.AmountIn)
}

func (s *QuoteService) tokenDecimals(ctx context.Context, block near.BlockRef, tokens []string) ([]uint8, error) {
	out := make([]uint8, len(tokens))
	for i, token := range tokens {
		s.mu.RLock()
		d, ok := s.decimals[token]
		s.mu.RUnlock()
		if !ok {
			var err error
			d, err = s.reader.TokenDecimals(ctx, block, token)
			if err != nil {
				return nil, fmt.Errorf("decimals of %s: %w", token, err)
			}
			s.mu.Lock()
			s.decimals[token] = d
			s.mu.Unlock()
		}
		out[i] = d
	}
	return out, nil
}
