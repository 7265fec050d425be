package stableswap

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ComputeY returns the balance of tokenOut that keeps invariant d once the
// balance of tokenIn has been raised to its post-deposit value. balances holds
// the post-deposit state in working precision.
//
// Solves y**2 + b*y = c by iterating y = (y**2 + c) / (2*y + b - D).
func ComputeY(balances []*big.Int, tokenIn, tokenOut int, d, amp *big.Int) (*big.Int, error) {
	if err := checkIndices(len(balances), tokenIn, tokenOut); err != nil {
		return nil, err
	}

	n := big.NewInt(int64(len(balances)))
	a := ann(amp, len(balances))
	if a.Sign() <= 0 {
		return nil, ErrInvalidAmp
	}

	// The contract folds the input token in first, then the rest in index
	// order. Truncation makes the order observable.
	xIn := balances[tokenIn]
	s := new(big.Int).Set(xIn)
	c, err := quo(new(big.Int).Mul(d, d), new(big.Int).Mul(xIn, n))
	if err != nil {
		return nil, err
	}
	for k, x := range balances {
		if k == tokenIn || k == tokenOut {
			continue
		}
		s.Add(s, x)
		c.Mul(c, d)
		if c, err = quo(c, new(big.Int).Mul(x, n)); err != nil {
			return nil, err
		}
	}
	c.Mul(c, d)
	if c, err = quo(c, new(big.Int).Mul(a, n)); err != nil {
		return nil, err
	}

	// D is subtracted in the denominator below.
	b := new(big.Int).Quo(d, a)
	b.Add(b, s)

	return iterate(d, func(y *big.Int) (*big.Int, error) {
		numerator := new(big.Int).Mul(y, y)
		numerator.Add(numerator, c)

		denominator := new(big.Int).Mul(y, common.Big2)
		denominator.Add(denominator, b)
		denominator.Sub(denominator, d)

		return quo(numerator, denominator)
	})
}

func checkIndices(n, tokenIn, tokenOut int) error {
	if tokenIn == tokenOut || tokenIn < 0 || tokenOut < 0 || tokenIn >= n || tokenOut >= n {
		return ErrInvalidIndex
	}
	return nil
}
