package bet

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// OddsBase is the fixed-point base for odds: 4 implied decimal places,
// so odds=15000 means 1.5x.
const OddsBase = 10_000

// Bet carries the full fee-aware terms both parties signed off on.
// It is reconstructed from request fields on every call and never
// persisted whole; only its hash is.
type Bet struct {
	Backer       common.Address `json:"backer"`
	Layer        common.Address `json:"layer"`
	Token        common.Address `json:"token"`
	FeeRecipient common.Address `json:"fee_recipient"`
	League       common.Address `json:"league"`
	Resolver     common.Address `json:"resolver"`

	BackerStake *big.Int `json:"backer_stake"`
	BackerFee   *big.Int `json:"backer_fee"`
	LayerFee    *big.Int `json:"layer_fee"`
	Expiration  *big.Int `json:"expiration"`
	Fixture     *big.Int `json:"fixture"`
	Odds        *big.Int `json:"odds"`

	Payload []byte `json:"payload"`
}

// Hash identifies one (bet, nonce, domain) triple.
type Hash = common.Hash

// Subjects returns the six address fields in canonical order.
func (b *Bet) Subjects() [6]common.Address {
	return [6]common.Address{b.Backer, b.Layer, b.Token, b.FeeRecipient, b.League, b.Resolver}
}

// Params returns the six numeric fields in canonical order.
func (b *Bet) Params() [6]*big.Int {
	return [6]*big.Int{b.BackerStake, b.BackerFee, b.LayerFee, b.Expiration, b.Fixture, b.Odds}
}

// LayerStake computes the counter-stake the layer must escrow:
// backerStake * odds / 10^4, integer floor division.
func (b *Bet) LayerStake() *big.Int {
	return LayerStake(b.BackerStake, b.Odds)
}

// LayerStake is the package-level form for callers that only hold the
// two numbers. Nil inputs count as zero, matching the hash encoding.
func LayerStake(backerStake, odds *big.Int) *big.Int {
	if backerStake == nil || odds == nil {
		return new(big.Int)
	}
	s := new(big.Int).Mul(backerStake, odds)
	return s.Div(s, big.NewInt(OddsBase))
}
