package stableswap

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// MaxIterations bounds both Newton loops.
const MaxIterations = 255

// newtonStep computes the next approximation from the previous one. The
// returned value must be freshly allocated.
type newtonStep func(prev *big.Int) (*big.Int, error)

// converged reports |a - b| <= 1.
func converged(a, b *big.Int) bool {
	var diff big.Int
	diff.Sub(a, b)
	return diff.CmpAbs(common.Big1) <= 0
}

// iterate runs step from start until two successive approximations differ by
// at most one unit.
func iterate(start *big.Int, step newtonStep) (*big.Int, error) {
	cur := new(big.Int).Set(start)
	for i := 0; i < MaxIterations; i++ {
		next, err := step(cur)
		if err != nil {
			return nil, err
		}
		if converged(next, cur) {
			return next, nil
		}
		cur = next
	}
	return nil, ErrDidNotConverge
}

// quo divides truncating toward zero; a non-positive divisor means the
// iteration cannot make progress.
func quo(x, y *big.Int) (*big.Int, error) {
	if y.Sign() <= 0 {
		return nil, ErrDidNotConverge
	}
	return new(big.Int).Quo(x, y), nil
}
