// Package engine owns the per-hash bet state machine: authenticated
// submission into pooled escrow, and claim-triggered settlement through
// the resolver dispatch and fee split.
package engine

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/oddsware/betcore/internal/bet"
	"github.com/oddsware/betcore/internal/feesplit"
	"github.com/oddsware/betcore/internal/resolver"
	"github.com/oddsware/betcore/internal/sigverify"
	"github.com/oddsware/betcore/internal/store"
)

// DefaultGraceWindow is how long after fixture start an unresolved bet
// stays locked before the fallback claim path opens.
const DefaultGraceWindow = 7 * 24 * time.Hour

// Recorder counts operations for metrics. Implementations must be cheap
// and must not fail.
type Recorder interface {
	Submitted()
	Claimed(result string)
	Rejected(op, kind string)
}

type nopRecorder struct{}

func (nopRecorder) Submitted()              {}
func (nopRecorder) Claimed(string)          {}
func (nopRecorder) Rejected(string, string) {}

// Deps are the injected collaborators plus engine identity.
type Deps struct {
	// Domain is the chain/deployment identifier folded into every hash.
	Domain *big.Int
	// Custody is the engine's pooled escrow account in the Vault.
	Custody common.Address
	// Fallback receives pooled funds when settlement cannot be determined.
	Fallback common.Address

	Vault            Vault
	Leagues          LeagueSource
	LeagueRegistry   LeagueRegistry
	ResolverRegistry ResolverRegistry
	Dispatcher       *resolver.Dispatcher
	Store            store.Store
	Events           EventSink
	Log              *zap.Logger
}

// Option tweaks engine behavior; production uses the defaults.
type Option func(*Engine)

// WithGraceWindow overrides the fallback grace window.
func WithGraceWindow(d time.Duration) Option {
	return func(e *Engine) { e.grace = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.rec = r }
}

// Engine serializes submit and claim operations and drives the
// NoRecord → Unclaimed → Claimed state machine.
type Engine struct {
	mu sync.Mutex

	domain   *big.Int
	custody  common.Address
	fallback common.Address

	vault       Vault
	leagues     LeagueSource
	leagueReg   LeagueRegistry
	resolverReg ResolverRegistry
	dispatcher  *resolver.Dispatcher
	records     store.Store
	events      EventSink

	grace time.Duration
	now   func() time.Time
	rec   Recorder
	log   *zap.Logger
}

func New(deps Deps, opts ...Option) *Engine {
	e := &Engine{
		domain:      deps.Domain,
		custody:     deps.Custody,
		fallback:    deps.Fallback,
		vault:       deps.Vault,
		leagues:     deps.Leagues,
		leagueReg:   deps.LeagueRegistry,
		resolverReg: deps.ResolverRegistry,
		dispatcher:  deps.Dispatcher,
		records:     deps.Store,
		events:      deps.Events,
		grace:       DefaultGraceWindow,
		now:         time.Now,
		rec:         nopRecorder{},
		log:         deps.Log,
	}
	if e.events == nil {
		e.events = NopSink{}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Hash computes the replay-protected hash of (bet, nonce) under the
// engine's domain.
func (e *Engine) Hash(b *bet.Bet, nonce *big.Int) common.Hash {
	return bet.ComputeHash(b, e.domain, nonce)
}

// Submit escrows a bet the caller (the layer) received signed terms for.
// Order is authenticate → authorize → validate → commit; any failure
// aborts with a typed error and zero state change.
func (e *Engine) Submit(ctx context.Context, caller common.Address, b bet.Bet, nonce *big.Int, sig []byte) (common.Hash, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	hash := e.Hash(&b, nonce)

	if err := e.authenticate(ctx, caller, &b, hash, sig); err != nil {
		e.reject("submit", hash, err)
		return hash, err
	}
	layerStake := b.LayerStake()
	if err := e.authorize(ctx, &b, layerStake); err != nil {
		e.reject("submit", hash, err)
		return hash, err
	}
	if err := e.validate(ctx, &b); err != nil {
		e.reject("submit", hash, err)
		return hash, err
	}
	if err := e.commit(ctx, &b, hash, layerStake); err != nil {
		e.reject("submit", hash, err)
		return hash, err
	}

	e.rec.Submitted()
	e.log.Info("bet submitted",
		zap.String("hash", hash.Hex()),
		zap.String("backer", b.Backer.Hex()),
		zap.String("layer", b.Layer.Hex()),
		zap.String("stake", b.BackerStake.String()),
		zap.String("odds", b.Odds.String()),
	)
	e.events.BetSubmitted(ctx, submittedEvent(hash, &b, nonce))
	return hash, nil
}

func (e *Engine) authenticate(ctx context.Context, caller common.Address, b *bet.Bet, hash common.Hash, sig []byte) error {
	if caller != b.Layer {
		return authenticationErr("caller %s is not the layer %s", caller.Hex(), b.Layer.Hex())
	}
	if b.Backer == (common.Address{}) {
		return authenticationErr("backer is the zero address")
	}
	if b.Backer == caller {
		return authenticationErr("backer and layer must be distinct")
	}
	state, err := e.records.State(ctx, hash)
	if err != nil {
		return err
	}
	if state != store.StateNone {
		return authenticationErr("hash %s already submitted", hash.Hex())
	}
	if !sigverify.IsValid(hash, b.Backer, sig) {
		return authenticationErr("signature does not recover to backer %s", b.Backer.Hex())
	}
	return nil
}

func (e *Engine) authorize(ctx context.Context, b *bet.Bet, layerStake *big.Int) error {
	for _, party := range []struct {
		addr  common.Address
		stake *big.Int
		name  string
	}{
		{b.Backer, b.BackerStake, "backer"},
		{b.Layer, layerStake, "layer"},
	} {
		approved, err := e.vault.IsApproved(ctx, party.addr, e.custody)
		if err != nil {
			return err
		}
		if !approved {
			return authorizationErr("%s %s has not approved the engine", party.name, party.addr.Hex())
		}
		balance, err := e.vault.BalanceOf(ctx, b.Token, party.addr)
		if err != nil {
			return err
		}
		// Nil stakes pass here as zero; validation rejects them next.
		stake := party.stake
		if stake == nil {
			stake = new(big.Int)
		}
		if balance.Cmp(stake) < 0 {
			return authorizationErr("%s balance %s below stake %s", party.name, balance, party.stake)
		}
	}
	return nil
}

func (e *Engine) validate(ctx context.Context, b *bet.Bet) error {
	registered, err := e.leagueReg.IsLeagueRegistered(ctx, b.League)
	if err != nil {
		return err
	}
	if !registered {
		return validationErr("league %s not registered", b.League.Hex())
	}
	used, err := e.resolverReg.IsResolverUsed(ctx, b.League, b.Resolver)
	if err != nil {
		return err
	}
	if !used {
		return validationErr("resolver %s not usable with league %s", b.Resolver.Hex(), b.League.Hex())
	}
	scheduled, err := e.leagues.IsFixtureScheduled(ctx, b.League, b.Fixture)
	if err != nil {
		return err
	}
	if !scheduled {
		return validationErr("fixture %s not scheduled", b.Fixture)
	}
	resolved, err := e.leagues.IsFixtureResolved(ctx, b.League, b.Fixture, b.Resolver)
	if err != nil {
		return err
	}
	if resolved {
		return validationErr("fixture %s already resolved for resolver %s", b.Fixture, b.Resolver.Hex())
	}
	if b.BackerStake == nil || b.BackerStake.Sign() <= 0 {
		return validationErr("backer stake must be positive")
	}
	if b.Odds == nil || b.Odds.Sign() <= 0 {
		return validationErr("odds must be positive")
	}
	if b.Expiration == nil || b.Expiration.Cmp(big.NewInt(e.now().Unix())) <= 0 {
		return validationErr("bet expired")
	}
	if !e.dispatcher.DispatchValidate(ctx, b.Resolver, b.League, b.Fixture, b.Payload) {
		return validationErr("resolver rejected payload")
	}
	return nil
}

// commit escrows both stakes and writes the record. The Vault boundary is
// a success-flag API, so the backer transfer is compensated if the layer
// transfer fails; record and index writes happen only after both stakes
// are pooled.
func (e *Engine) commit(ctx context.Context, b *bet.Bet, hash common.Hash, layerStake *big.Int) error {
	ok, err := e.vault.TransferFrom(ctx, b.Token, b.Backer, e.custody, b.BackerStake)
	if err != nil || !ok {
		return escrowFailed("backer", err)
	}
	ok, err = e.vault.TransferFrom(ctx, b.Token, b.Layer, e.custody, layerStake)
	if err != nil || !ok {
		if refunded, rerr := e.vault.Transfer(ctx, b.Token, b.Backer, b.BackerStake); rerr != nil || !refunded {
			e.log.Error("backer refund failed after partial escrow",
				zap.String("hash", hash.Hex()),
				zap.String("backer", b.Backer.Hex()),
				zap.Error(rerr),
			)
		}
		return escrowFailed("layer", err)
	}

	if err := e.records.PutUnclaimed(ctx, hash); err != nil {
		e.refundPool(ctx, b, hash, layerStake)
		return err
	}
	// The record is the source of truth and the bet is live from here on.
	// A failed index append loses a listing, not funds; failing the
	// submission now would strand a committed record behind an error.
	for _, subject := range []common.Address{b.Backer, b.Layer} {
		if err := e.records.AppendSubject(ctx, subject, hash); err != nil {
			e.log.Error("subject index append failed",
				zap.String("hash", hash.Hex()),
				zap.String("subject", subject.Hex()),
				zap.Error(err),
			)
		}
	}
	return nil
}

func escrowFailed(party string, err error) error {
	if err != nil {
		return authorizationErr("%s escrow transfer failed: %v", party, err)
	}
	return authorizationErr("%s escrow transfer refused by vault", party)
}

// refundPool unwinds both escrow legs after a failed record write.
func (e *Engine) refundPool(ctx context.Context, b *bet.Bet, hash common.Hash, layerStake *big.Int) {
	for _, leg := range []struct {
		to     common.Address
		amount *big.Int
	}{
		{b.Backer, b.BackerStake},
		{b.Layer, layerStake},
	} {
		if ok, err := e.vault.Transfer(ctx, b.Token, leg.to, leg.amount); err != nil || !ok {
			e.log.Error("escrow refund failed after record write failure",
				zap.String("hash", hash.Hex()),
				zap.String("to", leg.to.Hex()),
				zap.Error(err),
			)
		}
	}
}

// Claim settles an Unclaimed bet. Anyone may trigger it: payouts go to
// the hash-bound parties, so the caller gains nothing by claiming early.
// The record is promoted before funds move; under the engine's
// serialization this can only ever under-pay on a vault fault, never pay
// the same hash twice.
func (e *Engine) Claim(ctx context.Context, b bet.Bet, nonce *big.Int) (common.Hash, resolver.ResultCode, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	hash := e.Hash(&b, nonce)

	state, err := e.records.State(ctx, hash)
	if err != nil {
		return hash, resolver.Unresolved, err
	}
	if state != store.StateUnclaimed {
		err := settlementErr("hash %s is %s, not unclaimed", hash.Hex(), state)
		e.reject("claim", hash, err)
		return hash, resolver.Unresolved, err
	}

	result, err := e.result(ctx, b.League, b.Resolver, b.Fixture, b.Payload)
	if err != nil {
		return hash, resolver.Unresolved, err
	}
	if result == resolver.Unresolved {
		open, err := e.graceOpen(ctx, b.League, b.Fixture)
		if err != nil {
			return hash, resolver.Unresolved, err
		}
		if !open {
			err := settlementErr("fixture unresolved and grace window still closed")
			e.reject("claim", hash, err)
			return hash, resolver.Unresolved, err
		}
	}

	if err := e.records.MarkClaimed(ctx, hash); err != nil {
		return hash, resolver.Unresolved, err
	}
	if err := e.payout(ctx, &b, result); err != nil {
		e.log.Error("payout failed after claim", zap.String("hash", hash.Hex()), zap.Error(err))
		return hash, result, err
	}

	e.rec.Claimed(result.String())
	e.log.Info("bet claimed",
		zap.String("hash", hash.Hex()),
		zap.String("result", result.String()),
	)
	e.events.BetClaimed(ctx, BetClaimed{Hash: hash, Result: result})
	return hash, result, nil
}

// result computes the current outcome: the resolver's answer when the
// league reports the fixture resolved, Unresolved otherwise.
func (e *Engine) result(ctx context.Context, league, resolverAddr common.Address, fixture *big.Int, payload []byte) (resolver.ResultCode, error) {
	resolved, err := e.leagues.IsFixtureResolved(ctx, league, fixture, resolverAddr)
	if err != nil {
		return resolver.Unresolved, err
	}
	if !resolved {
		return resolver.Unresolved, nil
	}
	resolution, err := e.leagues.GetResolution(ctx, league, fixture, resolverAddr)
	if err != nil {
		return resolver.Unresolved, err
	}
	return e.dispatcher.DispatchResolve(ctx, resolverAddr, league, fixture, payload, resolution), nil
}

// graceOpen reports whether the post-start grace window has elapsed.
func (e *Engine) graceOpen(ctx context.Context, league common.Address, fixture *big.Int) (bool, error) {
	start, err := e.leagues.GetFixtureStart(ctx, league, fixture)
	if err != nil {
		return false, err
	}
	deadline := time.Unix(start.Int64(), 0).Add(e.grace)
	return !e.now().Before(deadline), nil
}

// payout moves the full pool out of custody per the fee split.
func (e *Engine) payout(ctx context.Context, b *bet.Bet, result resolver.ResultCode) error {
	split := feesplit.Allocate(result, b.BackerStake, b.LayerStake())
	for _, leg := range []struct {
		to     common.Address
		amount *big.Int
		name   string
	}{
		{b.Backer, split.Backer, "backer"},
		{b.Layer, split.Layer, "layer"},
		{b.FeeRecipient, split.OracleFee, "fee recipient"},
		{e.fallback, split.Fallback, "fallback"},
	} {
		if leg.amount.Sign() == 0 {
			continue
		}
		ok, err := e.vault.Transfer(ctx, b.Token, leg.to, leg.amount)
		if err != nil {
			return settlementErr("%s payout failed: %v", leg.name, err)
		}
		if !ok {
			return settlementErr("%s payout refused by vault", leg.name)
		}
	}
	return nil
}

// GetResult is the read-only query form of the claim-time outcome lookup.
func (e *Engine) GetResult(ctx context.Context, league, resolverAddr common.Address, fixture *big.Int, payload []byte) (resolver.ResultCode, error) {
	return e.result(ctx, league, resolverAddr, fixture, payload)
}

// GetBetsBySubject lists every bet hash an account participates in, in
// submission order.
func (e *Engine) GetBetsBySubject(ctx context.Context, subject common.Address) ([]common.Hash, error) {
	return e.records.BySubject(ctx, subject)
}

func (e *Engine) reject(op string, hash common.Hash, err error) {
	e.rec.Rejected(op, Kind(err))
	e.log.Warn(op+" rejected",
		zap.String("hash", hash.Hex()),
		zap.String("kind", Kind(err)),
		zap.Error(err),
	)
}
