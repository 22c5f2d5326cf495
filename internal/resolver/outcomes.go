package resolver

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Moneyline is the reference plugin: the payload's first word names the
// side the backer picked, the resolution's first word names the side that
// won, and a nonzero second resolution word voids the fixture (push).
// Useful as the default registry entry and as the dispatch test double.
type Moneyline struct {
	Leagues []common.Address
}

var (
	moneylineValidate = SelectorOf("validateBet(address,uint256,bytes32[])")
	moneylineResolve  = SelectorOf("resolveBet(address,uint256,bytes32[],bytes32[])")
)

func (m *Moneyline) SupportsLeague(league common.Address) bool {
	for _, l := range m.Leagues {
		if l == league {
			return true
		}
	}
	return false
}

func (m *Moneyline) ValidateSelector() Selector { return moneylineValidate }
func (m *Moneyline) ResolveSelector() Selector  { return moneylineResolve }
func (m *Moneyline) Description() string {
	return "Straight-up winner pick: backer wins iff the picked side wins"
}
func (m *Moneyline) Kind() string    { return "moneyline" }
func (m *Moneyline) Details() string { return "payload[0]=picked side, resolution[0]=winning side" }

// Validate requires exactly one payload word naming a nonzero side.
func (m *Moneyline) Validate(_ context.Context, call Call) (bool, error) {
	if len(call.Payload) != 1 {
		return false, nil
	}
	return call.Payload[0] != (Word{}), nil
}

// Resolve compares the picked side with the winning side.
func (m *Moneyline) Resolve(_ context.Context, call Call) (ResultCode, error) {
	if len(call.Payload) != 1 || len(call.Resolution) == 0 {
		return Unresolved, nil
	}
	if len(call.Resolution) > 1 && call.Resolution[1] != (Word{}) {
		return Push, nil
	}
	winner := call.Resolution[0]
	if winner == (Word{}) {
		return Unresolved, nil
	}
	if winner == call.Payload[0] {
		return BackerWins, nil
	}
	return BackerLoses, nil
}

// SideWord encodes a small side identifier as a payload/resolution word.
func SideWord(side uint64) Word {
	var w Word
	new(big.Int).SetUint64(side).FillBytes(w[:])
	return w
}
