// Package stableswap reproduces the Ref Finance StableSwap pricing contract on
// arbitrary-precision integers so that off-chain quotes match on-chain swaps to
// the unit.
package stableswap

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TargetDecimals is the working precision every balance is rescaled to before
// invariant math.
const TargetDecimals uint8 = 18

func pow10(exp uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil)
}

// Normalize rescales amount from nativeDecimals to workingDecimals. Scaling down
// truncates toward zero, as the contract's integer division does.
func Normalize(amount *big.Int, nativeDecimals, workingDecimals uint8) *big.Int {
	if nativeDecimals <= workingDecimals {
		return new(big.Int).Mul(amount, pow10(workingDecimals-nativeDecimals))
	}
	return new(big.Int).Quo(amount, pow10(nativeDecimals-workingDecimals))
}

// Denormalize is the inverse of Normalize: it rescales a working-precision
// amount back to nativeDecimals.
func Denormalize(amount *big.Int, workingDecimals, nativeDecimals uint8) *big.Int {
	if nativeDecimals <= workingDecimals {
		return new(big.Int).Quo(amount, pow10(workingDecimals-nativeDecimals))
	}
	return new(big.Int).Mul(amount, pow10(nativeDecimals-workingDecimals))
}

// NormalizeAll converts every balance to TargetDecimals. Decimals above the
// working precision are rejected with ErrInvalidDecimals.
func NormalizeAll(amounts []*big.Int, decimals []uint8) ([]*big.Int, error) {
	if len(amounts) != len(decimals) {
		return nil, ErrLengthMismatch
	}
	out := make([]*big.Int, len(amounts))
	for i, amount := range amounts {
		if decimals[i] > TargetDecimals {
			return nil, ErrInvalidDecimals
		}
		if amount == nil {
			out[i] = new(big.Int).Set(common.Big0)
			continue
		}
		out[i] = Normalize(amount, decimals[i], TargetDecimals)
	}
	return out, nil
}
