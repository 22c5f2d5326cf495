package engine

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/oddsware/betcore/internal/bet"
	"github.com/oddsware/betcore/internal/resolver"
)

// Vault is the escrow/balance ledger. Transfer operations report success
// as a flag; false or an error aborts the calling operation.
type Vault interface {
	IsApproved(ctx context.Context, account, spender common.Address) (bool, error)
	BalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error)
	TransferFrom(ctx context.Context, token, from, to common.Address, amount *big.Int) (bool, error)
	Transfer(ctx context.Context, token, to common.Address, amount *big.Int) (bool, error)
}

// LeagueRegistry answers whether a league is registered at all.
type LeagueRegistry interface {
	IsLeagueRegistered(ctx context.Context, league common.Address) (bool, error)
}

// ResolverRegistry answers whether a resolver is usable with a league.
type ResolverRegistry interface {
	IsResolverUsed(ctx context.Context, league, resolver common.Address) (bool, error)
}

// LeagueSource reaches the per-league fixture schedule. The league address
// routes each call to the right league collaborator.
type LeagueSource interface {
	IsFixtureScheduled(ctx context.Context, league common.Address, fixture *big.Int) (bool, error)
	IsFixtureResolved(ctx context.Context, league common.Address, fixture *big.Int, resolver common.Address) (bool, error)
	GetResolution(ctx context.Context, league common.Address, fixture *big.Int, resolver common.Address) ([]byte, error)
	GetFixtureStart(ctx context.Context, league common.Address, fixture *big.Int) (*big.Int, error)
}

// BetSubmitted is emitted once per successful submission.
type BetSubmitted struct {
	Hash        common.Hash    `json:"hash"`
	Backer      common.Address `json:"backer"`
	Layer       common.Address `json:"layer"`
	Token       common.Address `json:"token"`
	League      common.Address `json:"league"`
	Resolver    common.Address `json:"resolver"`
	BackerStake *big.Int       `json:"backer_stake"`
	Fixture     *big.Int       `json:"fixture"`
	Odds        *big.Int       `json:"odds"`
	Expiration  *big.Int       `json:"expiration"`
	Nonce       *big.Int       `json:"nonce"`
	Payload     []byte         `json:"payload"`
}

// BetClaimed is emitted once per successful claim.
type BetClaimed struct {
	Hash   common.Hash         `json:"hash"`
	Result resolver.ResultCode `json:"result"`
}

// EventSink receives settlement events after their operation has
// committed. Sinks must not fail the operation.
type EventSink interface {
	BetSubmitted(ctx context.Context, ev BetSubmitted)
	BetClaimed(ctx context.Context, ev BetClaimed)
}

// NopSink discards events.
type NopSink struct{}

func (NopSink) BetSubmitted(context.Context, BetSubmitted) {}
func (NopSink) BetClaimed(context.Context, BetClaimed)     {}

func submittedEvent(hash common.Hash, b *bet.Bet, nonce *big.Int) BetSubmitted {
	return BetSubmitted{
		Hash:        hash,
		Backer:      b.Backer,
		Layer:       b.Layer,
		Token:       b.Token,
		League:      b.League,
		Resolver:    b.Resolver,
		BackerStake: b.BackerStake,
		Fixture:     b.Fixture,
		Odds:        b.Odds,
		Expiration:  b.Expiration,
		Nonce:       nonce,
		Payload:     b.Payload,
	}
}
