package stableswap

import "math/big"

// GetAmountOut quotes amountIn of token tokenInIndex for token tokenOutIndex in
// a pool holding amounts (native decimals). totalFee is in basis points.
//
// The invariant is computed on the pre-deposit balances, the new output
// balance on the post-deposit ones.
func GetAmountOut(
	tokenDecimals []uint8,
	amounts []*big.Int,
	ampFactor *big.Int,
	totalFee uint32,
	tokenInIndex, tokenOutIndex int,
	amountIn *big.Int,
) (*big.Int, error) {
	if err := checkIndices(len(amounts), tokenInIndex, tokenOutIndex); err != nil {
		return nil, err
	}
	pool, err := NewPool(tokenDecimals, amounts, ampFactor, totalFee)
	if err != nil {
		return nil, err
	}
	return pool.GetAmountOut(tokenInIndex, tokenOutIndex, amountIn)
}
