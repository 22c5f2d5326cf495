// Package feesplit computes settlement payout splits. Everything is exact
// integer math on the pooled stakes; each branch pays out the entire pool,
// so no dust ever remains in custody.
package feesplit

import (
	"math/big"

	"github.com/oddsware/betcore/internal/resolver"
)

// OracleFeeDenominator sets the oracle fee at 1/400 of a settled leg (0.25%).
const OracleFeeDenominator = 400

var feeDenom = big.NewInt(OracleFeeDenominator)

// Split lists the payout legs for one settlement. Amounts are always
// non-nil and sum to backerStake + layerStake.
type Split struct {
	Backer    *big.Int // to the backer
	Layer     *big.Int // to the layer
	OracleFee *big.Int // to the fee recipient
	Fallback  *big.Int // to the org fallback account
}

// Total returns the sum of all legs.
func (s Split) Total() *big.Int {
	t := new(big.Int).Add(s.Backer, s.Layer)
	t.Add(t, s.OracleFee)
	return t.Add(t, s.Fallback)
}

// Allocate maps a result code to its payout split.
//
// Half outcomes split the backer stake across both legs; the odd unit from
// flooring B/2 lands on the larger leg so the legs still cover the pool.
// The oracle fee is skimmed per leg after the split, which keeps every
// flooring remainder inside that leg's payout. Unresolved and any code
// above the defined range route the whole pool to the fallback account
// with no fee skim.
func Allocate(result resolver.ResultCode, backerStake, layerStake *big.Int) Split {
	pool := new(big.Int).Add(backerStake, layerStake)

	switch result {
	case resolver.BackerLoses:
		fee := new(big.Int).Div(pool, feeDenom)
		return Split{
			Backer:    new(big.Int),
			Layer:     new(big.Int).Sub(pool, fee),
			OracleFee: fee,
			Fallback:  new(big.Int),
		}

	case resolver.BackerWins:
		fee := new(big.Int).Div(pool, feeDenom)
		return Split{
			Backer:    new(big.Int).Sub(pool, fee),
			Layer:     new(big.Int),
			OracleFee: fee,
			Fallback:  new(big.Int),
		}

	case resolver.HalfLose:
		backerLeg := new(big.Int).Div(backerStake, big.NewInt(2))
		layerLeg := new(big.Int).Sub(backerStake, backerLeg)
		layerLeg.Add(layerLeg, layerStake)
		return skimmed(backerLeg, layerLeg)

	case resolver.HalfWin:
		layerLeg := new(big.Int).Div(layerStake, big.NewInt(2))
		backerLeg := new(big.Int).Sub(layerStake, layerLeg)
		backerLeg.Add(backerLeg, backerStake)
		return skimmed(backerLeg, layerLeg)

	case resolver.Push:
		return skimmed(new(big.Int).Set(backerStake), new(big.Int).Set(layerStake))

	default:
		// Unresolved, or a code the protocol does not define.
		return Split{
			Backer:    new(big.Int),
			Layer:     new(big.Int),
			OracleFee: new(big.Int),
			Fallback:  pool,
		}
	}
}

// skimmed takes the oracle fee out of each leg independently.
func skimmed(backerLeg, layerLeg *big.Int) Split {
	feeB := new(big.Int).Div(backerLeg, feeDenom)
	feeL := new(big.Int).Div(layerLeg, feeDenom)
	return Split{
		Backer:    new(big.Int).Sub(backerLeg, feeB),
		Layer:     new(big.Int).Sub(layerLeg, feeL),
		OracleFee: new(big.Int).Add(feeB, feeL),
		Fallback:  new(big.Int),
	}
}
