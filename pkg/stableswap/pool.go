package stableswap

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// maxU128 is the widest value a contract Balance can hold.
var maxU128 = new(big.Int).Sub(new(big.Int).Lsh(common.Big1, 128), common.Big1)

// Pool is an immutable snapshot of a stable pool. Balances are kept in working
// precision.
type Pool struct {
	decimals []uint8
	cAmounts []*big.Int
	amp      *big.Int
	totalFee uint32
}

// SwapResult breaks a swap down into what the trader receives and how the pool
// balances move. Normalized values are in working precision.
type SwapResult struct {
	AmountOut            *big.Int
	NormalizedAmountOut  *big.Int
	TradeFee             *big.Int
	AdminFee             *big.Int
	NewSourceAmount      *big.Int
	NewDestinationAmount *big.Int
}

// NewPool validates the pool parameters and normalizes amounts.
func NewPool(decimals []uint8, amounts []*big.Int, amp *big.Int, totalFee uint32) (*Pool, error) {
	if len(decimals) != len(amounts) || len(amounts) < 2 {
		return nil, ErrLengthMismatch
	}
	if err := ValidateAmp(amp); err != nil {
		return nil, err
	}
	if totalFee >= FeeDivisor {
		return nil, ErrInvalidFee
	}
	for _, amount := range amounts {
		if err := checkBalance(amount); err != nil {
			return nil, err
		}
	}
	cAmounts, err := NormalizeAll(amounts, decimals)
	if err != nil {
		return nil, err
	}
	return &Pool{
		decimals: append([]uint8(nil), decimals...),
		cAmounts: cAmounts,
		amp:      new(big.Int).Set(amp),
		totalFee: totalFee,
	}, nil
}

func checkBalance(v *big.Int) error {
	if v == nil {
		return nil
	}
	if v.Sign() < 0 {
		return ErrNegativeAmount
	}
	if v.Cmp(maxU128) > 0 {
		return ErrArithmeticOverflow
	}
	return nil
}

// Len returns the number of tokens in the pool.
func (p *Pool) Len() int { return len(p.cAmounts) }

// Amp returns a copy of the amplification coefficient.
func (p *Pool) Amp() *big.Int { return new(big.Int).Set(p.amp) }

// TotalFee returns the trading fee in basis points.
func (p *Pool) TotalFee() uint32 { return p.totalFee }

// NormalizedAmounts returns copies of the balances in working precision.
func (p *Pool) NormalizedAmounts() []*big.Int {
	out := make([]*big.Int, len(p.cAmounts))
	for i, v := range p.cAmounts {
		out[i] = new(big.Int).Set(v)
	}
	return out
}

// Invariant computes D for the current balances. The result can be handed to
// SwapWithInvariant to quote many trades against one snapshot.
func (p *Pool) Invariant() (*big.Int, error) {
	return ComputeD(p.cAmounts, p.amp)
}

// Swap quotes amountIn of token tokenIn for token tokenOut.
func (p *Pool) Swap(tokenIn int, amountIn *big.Int, tokenOut int, adminFee uint32) (*SwapResult, error) {
	if err := checkIndices(p.Len(), tokenIn, tokenOut); err != nil {
		return nil, err
	}
	d, err := p.Invariant()
	if err != nil {
		return nil, err
	}
	return p.SwapWithInvariant(d, tokenIn, amountIn, tokenOut, adminFee)
}

// SwapWithInvariant is Swap with a precomputed invariant d.
func (p *Pool) SwapWithInvariant(d *big.Int, tokenIn int, amountIn *big.Int, tokenOut int, adminFee uint32) (*SwapResult, error) {
	if err := checkIndices(p.Len(), tokenIn, tokenOut); err != nil {
		return nil, err
	}
	if amountIn == nil {
		amountIn = common.Big0
	}
	if err := checkBalance(amountIn); err != nil {
		return nil, err
	}
	if adminFee >= FeeDivisor {
		return nil, ErrInvalidFee
	}

	cAmountIn := Normalize(amountIn, p.decimals[tokenIn], TargetDecimals)
	postDeposit := p.NormalizedAmounts()
	postDeposit[tokenIn].Add(postDeposit[tokenIn], cAmountIn)

	y, err := ComputeY(postDeposit, tokenIn, tokenOut, d, p.amp)
	if err != nil {
		return nil, err
	}

	// One unit is held back so the pool never pays out more than the
	// invariant allows.
	dy := new(big.Int).Sub(p.cAmounts[tokenOut], y)
	dy.Sub(dy, common.Big1)
	if dy.Sign() < 0 {
		dy.SetInt64(0)
	}

	fees := Fees{TradeFee: p.totalFee, AdminFee: adminFee}
	swapped := ApplyFee(dy, fees.TradeFee)
	tradeFee := new(big.Int).Sub(dy, swapped)
	admin := fees.AdminFeeOf(tradeFee)

	newDestination := new(big.Int).Sub(p.cAmounts[tokenOut], swapped)
	newDestination.Sub(newDestination, admin)

	return &SwapResult{
		AmountOut:            Denormalize(swapped, TargetDecimals, p.decimals[tokenOut]),
		NormalizedAmountOut:  swapped,
		TradeFee:             tradeFee,
		AdminFee:             admin,
		NewSourceAmount:      postDeposit[tokenIn],
		NewDestinationAmount: newDestination,
	}, nil
}

// GetAmountOut returns the amount of token tokenOut, in its native decimals,
// received for amountIn of token tokenIn.
func (p *Pool) GetAmountOut(tokenIn, tokenOut int, amountIn *big.Int) (*big.Int, error) {
	res, err := p.Swap(tokenIn, amountIn, tokenOut, 0)
	if err != nil {
		return nil, err
	}
	return res.AmountOut, nil
}
