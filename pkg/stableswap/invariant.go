package stableswap

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ann returns A * n**n.
func ann(amp *big.Int, n int) *big.Int {
	nn := new(big.Int).Exp(big.NewInt(int64(n)), big.NewInt(int64(n)), nil)
	return nn.Mul(nn, amp)
}

func sum(xs []*big.Int) *big.Int {
	s := new(big.Int)
	for _, x := range xs {
		s.Add(s, x)
	}
	return s
}

// ComputeD solves the StableSwap invariant
//
//	A * n**n * sum(x_i) + D = A * D * n**n + D**(n+1) / (n**n * prod(x_i))
//
// for D over balances already normalized to a common precision.
func ComputeD(balances []*big.Int, amp *big.Int) (*big.Int, error) {
	s := sum(balances)
	if s.Sign() == 0 {
		return new(big.Int), nil
	}

	n := big.NewInt(int64(len(balances)))
	nPlusOne := new(big.Int).Add(n, common.Big1)
	a := ann(amp, len(balances))
	leverage := new(big.Int).Mul(a, s)
	annMinusOne := new(big.Int).Sub(a, common.Big1)

	return iterate(s, func(d *big.Int) (*big.Int, error) {
		// dP = D**(n+1) / (n**n * prod(x_i)), truncated once per token
		dP := new(big.Int).Set(d)
		for _, x := range balances {
			dP.Mul(dP, d)
			var err error
			if dP, err = quo(dP, new(big.Int).Mul(x, n)); err != nil {
				return nil, err
			}
		}

		// (Ann*S + dP*n) * D / ((Ann-1)*D + (n+1)*dP)
		numerator := new(big.Int).Mul(dP, n)
		numerator.Add(numerator, leverage)
		numerator.Mul(numerator, d)

		denominator := new(big.Int).Mul(annMinusOne, d)
		denominator.Add(denominator, new(big.Int).Mul(nPlusOne, dP))

		return quo(numerator, denominator)
	})
}
