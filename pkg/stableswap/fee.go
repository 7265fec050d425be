package stableswap

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// FeeDivisor is the denominator fees are expressed against, i.e. basis points.
const FeeDivisor uint32 = 10_000

var feeDivisor = big.NewInt(int64(FeeDivisor))

// Fees pairs the pool trading fee with the exchange admin share of it, both in
// basis points.
type Fees struct {
	TradeFee uint32
	AdminFee uint32
}

// TradeFeeOf returns amount * TradeFee / FeeDivisor.
func (f Fees) TradeFeeOf(amount *big.Int) *big.Int {
	return mulFee(amount, f.TradeFee)
}

// AdminFeeOf returns the admin share of an already charged trade fee.
func (f Fees) AdminFeeOf(tradeFee *big.Int) *big.Int {
	return mulFee(tradeFee, f.AdminFee)
}

func mulFee(amount *big.Int, bps uint32) *big.Int {
	out := new(big.Int).Mul(amount, big.NewInt(int64(bps)))
	return out.Quo(out, feeDivisor)
}

// ApplyFee returns raw net of the trading fee: raw - raw*fee/FeeDivisor.
func ApplyFee(raw *big.Int, fee uint32) *big.Int {
	return new(big.Int).Sub(raw, mulFee(raw, fee))
}

// FeeFromDecimal converts a fractional fee such as 0.0004 into basis points.
// Fractions that are not a whole number of basis points are rejected.
func FeeFromDecimal(fee decimal.Decimal) (uint32, error) {
	if fee.IsNegative() || fee.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return 0, ErrInvalidFee
	}
	bps := fee.Mul(decimal.NewFromInt(int64(FeeDivisor)))
	if !bps.IsInteger() {
		return 0, ErrInvalidFee
	}
	return uint32(bps.IntPart()), nil
}

// FeeToDecimal is the inverse of FeeFromDecimal.
func FeeToDecimal(bps uint32) decimal.Decimal {
	return decimal.New(int64(bps), 0).Div(decimal.NewFromInt(int64(FeeDivisor)))
}
