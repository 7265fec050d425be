package stableswap

import "math/big"

const (
	MinAmp = 1
	MaxAmp = 1_000_000
)

var (
	minAmp = big.NewInt(MinAmp)
	maxAmp = big.NewInt(MaxAmp)
)

// ValidateAmp checks amp lies in [MinAmp, MaxAmp].
func ValidateAmp(amp *big.Int) error {
	if amp == nil || amp.Cmp(minAmp) < 0 || amp.Cmp(maxAmp) > 0 {
		return ErrInvalidAmp
	}
	return nil
}

// AmpRamp describes a linear change of the amplification coefficient between
// StartTime and StopTime (block timestamps, nanoseconds on NEAR).
type AmpRamp struct {
	Initial   *big.Int
	Target    *big.Int
	StartTime uint64
	StopTime  uint64
}

// NewStaticAmp returns a ramp that always yields amp.
func NewStaticAmp(amp *big.Int) AmpRamp {
	return AmpRamp{Initial: amp, Target: amp}
}

// At returns the amplification coefficient in effect at now.
func (r AmpRamp) At(now uint64) *big.Int {
	if now >= r.StopTime {
		return new(big.Int).Set(r.Target)
	}
	if now <= r.StartTime {
		return new(big.Int).Set(r.Initial)
	}
	timeRange := new(big.Int).SetUint64(r.StopTime - r.StartTime)
	timeDelta := new(big.Int).SetUint64(now - r.StartTime)

	if r.Target.Cmp(r.Initial) >= 0 {
		delta := new(big.Int).Sub(r.Target, r.Initial)
		delta.Mul(delta, timeDelta).Quo(delta, timeRange)
		return delta.Add(r.Initial, delta)
	}
	delta := new(big.Int).Sub(r.Initial, r.Target)
	delta.Mul(delta, timeDelta).Quo(delta, timeRange)
	return delta.Sub(r.Initial, delta)
}
