// Package inmem provides in-memory stand-ins for the on-chain
// collaborators, used in dev mode and tests.
package inmem

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Vault is an in-process escrow ledger. A single implicit token space is
// tracked per account; the token address is accepted and ignored.
type Vault struct {
	mu       sync.Mutex
	balances map[common.Address]*big.Int
	approved map[common.Address]map[common.Address]bool
}

func NewVault() *Vault {
	return &Vault{
		balances: make(map[common.Address]*big.Int),
		approved: make(map[common.Address]map[common.Address]bool),
	}
}

// Credit mints balance for an account (setup only).
func (v *Vault) Credit(account common.Address, amount *big.Int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.balance(account).Add(v.balance(account), amount)
}

// Approve grants spender rights over an account's balance.
func (v *Vault) Approve(account, spender common.Address) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.approved[account] == nil {
		v.approved[account] = make(map[common.Address]bool)
	}
	v.approved[account][spender] = true
}

func (v *Vault) balance(account common.Address) *big.Int {
	if b, ok := v.balances[account]; ok {
		return b
	}
	b := new(big.Int)
	v.balances[account] = b
	return b
}

func (v *Vault) IsApproved(_ context.Context, account, spender common.Address) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.approved[account][spender], nil
}

func (v *Vault) BalanceOf(_ context.Context, _ common.Address, account common.Address) (*big.Int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return new(big.Int).Set(v.balance(account)), nil
}

func (v *Vault) TransferFrom(_ context.Context, _ common.Address, from, to common.Address, amount *big.Int) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.balance(from).Cmp(amount) < 0 {
		return false, nil
	}
	v.balance(from).Sub(v.balance(from), amount)
	v.balance(to).Add(v.balance(to), amount)
	return true, nil
}

// Transfer moves funds out of the custody account set at construction
// time by the engine wiring; here the "from" side is implicit, so the
// vault tracks it explicitly.
type CustodyVault struct {
	*Vault
	Custody common.Address
}

func NewCustodyVault(custody common.Address) *CustodyVault {
	return &CustodyVault{Vault: NewVault(), Custody: custody}
}

func (v *CustodyVault) Transfer(ctx context.Context, token common.Address, to common.Address, amount *big.Int) (bool, error) {
	return v.TransferFrom(ctx, token, v.Custody, to, amount)
}

// Leagues is an in-process fixture schedule shared by every league
// address (dev mode runs one logical league).
type Leagues struct {
	mu         sync.Mutex
	scheduled  map[string]bool
	resolved   map[string]bool
	resolution map[string][]byte
	start      map[string]int64
}

func NewLeagues() *Leagues {
	return &Leagues{
		scheduled:  make(map[string]bool),
		resolved:   make(map[string]bool),
		resolution: make(map[string][]byte),
		start:      make(map[string]int64),
	}
}

func key(league common.Address, fixture *big.Int) string {
	return league.Hex() + ":" + fixture.String()
}

// Schedule registers a fixture with its start time (setup only).
func (l *Leagues) Schedule(league common.Address, fixture *big.Int, start int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := key(league, fixture)
	l.scheduled[k] = true
	l.start[k] = start
}

// Resolve records resolution data for a fixture (setup only).
func (l *Leagues) Resolve(league common.Address, fixture *big.Int, resolution []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := key(league, fixture)
	l.resolved[k] = true
	l.resolution[k] = resolution
}

func (l *Leagues) IsFixtureScheduled(_ context.Context, league common.Address, fixture *big.Int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.scheduled[key(league, fixture)], nil
}

func (l *Leagues) IsFixtureResolved(_ context.Context, league common.Address, fixture *big.Int, _ common.Address) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.resolved[key(league, fixture)], nil
}

func (l *Leagues) GetResolution(_ context.Context, league common.Address, fixture *big.Int, _ common.Address) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.resolution[key(league, fixture)], nil
}

func (l *Leagues) GetFixtureStart(_ context.Context, league common.Address, fixture *big.Int) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return big.NewInt(l.start[key(league, fixture)]), nil
}

// LeagueRegistry registers leagues by address.
type LeagueRegistry struct {
	mu      sync.Mutex
	leagues map[common.Address]bool
}

func NewLeagueRegistry(leagues ...common.Address) *LeagueRegistry {
	r := &LeagueRegistry{leagues: make(map[common.Address]bool)}
	for _, l := range leagues {
		r.leagues[l] = true
	}
	return r
}

func (r *LeagueRegistry) IsLeagueRegistered(_ context.Context, league common.Address) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leagues[league], nil
}

// ResolverRegistry pairs resolvers with the leagues they may settle.
type ResolverRegistry struct {
	mu    sync.Mutex
	pairs map[common.Address]map[common.Address]bool // league -> resolver
}

func NewResolverRegistry() *ResolverRegistry {
	return &ResolverRegistry{pairs: make(map[common.Address]map[common.Address]bool)}
}

// Use marks resolver as usable with league (setup only).
func (r *ResolverRegistry) Use(league, resolver common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pairs[league] == nil {
		r.pairs[league] = make(map[common.Address]bool)
	}
	r.pairs[league][resolver] = true
}

func (r *ResolverRegistry) IsResolverUsed(_ context.Context, league, resolver common.Address) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pairs[league][resolver], nil
}
