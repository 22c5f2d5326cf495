package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Hand-written ABI fragments for the collaborator contracts. Only the
// entry points the engine uses are bound.
const (
	vaultABI = `[
		{"type":"function","name":"isApproved","stateMutability":"view","inputs":[{"name":"account","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"type":"bool"}]},
		{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"token","type":"address"},{"name":"account","type":"address"}],"outputs":[{"type":"uint256"}]},
		{"type":"function","name":"transferFrom","stateMutability":"nonpayable","inputs":[{"name":"token","type":"address"},{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"type":"bool"}]},
		{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"token","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"type":"bool"}]}
	]`

	leagueRegistryABI = `[
		{"type":"function","name":"isLeagueRegistered","stateMutability":"view","inputs":[{"name":"league","type":"address"}],"outputs":[{"type":"bool"}]}
	]`

	resolverRegistryABI = `[
		{"type":"function","name":"isResolverUsed","stateMutability":"view","inputs":[{"name":"league","type":"address"},{"name":"resolver","type":"address"}],"outputs":[{"type":"bool"}]}
	]`

	leagueABI = `[
		{"type":"function","name":"isFixtureScheduled","stateMutability":"view","inputs":[{"name":"fixture","type":"uint256"}],"outputs":[{"type":"bool"}]},
		{"type":"function","name":"isFixtureResolved","stateMutability":"view","inputs":[{"name":"fixture","type":"uint256"},{"name":"resolver","type":"address"}],"outputs":[{"type":"uint8"}]},
		{"type":"function","name":"getResolution","stateMutability":"view","inputs":[{"name":"fixture","type":"uint256"},{"name":"resolver","type":"address"}],"outputs":[{"type":"bytes"}]},
		{"type":"function","name":"getFixtureStart","stateMutability":"view","inputs":[{"name":"fixture","type":"uint256"}],"outputs":[{"type":"uint256"}]}
	]`
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("chain: bad ABI literal: %v", err))
	}
	return parsed
}

var (
	parsedVaultABI            = mustParseABI(vaultABI)
	parsedLeagueRegistryABI   = mustParseABI(leagueRegistryABI)
	parsedResolverRegistryABI = mustParseABI(resolverRegistryABI)
	parsedLeagueABI           = mustParseABI(leagueABI)
)

// Vault binds the on-chain escrow ledger. Transfer success is the
// transaction receipt status: a reverted transfer reports false.
type Vault struct {
	client   *Client
	contract *bind.BoundContract
}

func NewVault(client *Client, addr common.Address) *Vault {
	return &Vault{
		client:   client,
		contract: bind.NewBoundContract(addr, parsedVaultABI, client.eth, client.eth, client.eth),
	}
}

func (v *Vault) IsApproved(ctx context.Context, account, spender common.Address) (bool, error) {
	var out []interface{}
	err := v.contract.Call(&bind.CallOpts{Context: ctx}, &out, "isApproved", account, spender)
	if err != nil {
		return false, fmt.Errorf("isApproved: %w", err)
	}
	return out[0].(bool), nil
}

func (v *Vault) BalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error) {
	var out []interface{}
	err := v.contract.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", token, account)
	if err != nil {
		return nil, fmt.Errorf("balanceOf: %w", err)
	}
	return out[0].(*big.Int), nil
}

func (v *Vault) TransferFrom(ctx context.Context, token, from, to common.Address, amount *big.Int) (bool, error) {
	return v.transact(ctx, "transferFrom", token, from, to, amount)
}

func (v *Vault) Transfer(ctx context.Context, token, to common.Address, amount *big.Int) (bool, error) {
	return v.transact(ctx, "transfer", token, to, amount)
}

func (v *Vault) transact(ctx context.Context, method string, args ...interface{}) (bool, error) {
	opts, err := v.client.transactOpts(ctx)
	if err != nil {
		return false, fmt.Errorf("build tx opts: %w", err)
	}
	tx, err := v.contract.Transact(opts, method, args...)
	if err != nil {
		return false, fmt.Errorf("%s tx: %w", method, err)
	}
	receipt, err := bind.WaitMined(ctx, v.client.eth, tx)
	if err != nil {
		return false, fmt.Errorf("wait mined: %w", err)
	}
	return receipt.Status == 1, nil
}

// LeagueRegistry binds the league registration lookup.
type LeagueRegistry struct {
	contract *bind.BoundContract
}

func NewLeagueRegistry(client *Client, addr common.Address) *LeagueRegistry {
	return &LeagueRegistry{
		contract: bind.NewBoundContract(addr, parsedLeagueRegistryABI, client.eth, client.eth, client.eth),
	}
}

func (r *LeagueRegistry) IsLeagueRegistered(ctx context.Context, league common.Address) (bool, error) {
	var out []interface{}
	err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, "isLeagueRegistered", league)
	if err != nil {
		return false, fmt.Errorf("isLeagueRegistered: %w", err)
	}
	return out[0].(bool), nil
}

// ResolverRegistry binds the league↔resolver pairing lookup.
type ResolverRegistry struct {
	contract *bind.BoundContract
}

func NewResolverRegistry(client *Client, addr common.Address) *ResolverRegistry {
	return &ResolverRegistry{
		contract: bind.NewBoundContract(addr, parsedResolverRegistryABI, client.eth, client.eth, client.eth),
	}
}

func (r *ResolverRegistry) IsResolverUsed(ctx context.Context, league, resolver common.Address) (bool, error) {
	var out []interface{}
	err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, "isResolverUsed", league, resolver)
	if err != nil {
		return false, fmt.Errorf("isResolverUsed: %w", err)
	}
	return out[0].(bool), nil
}

// Leagues routes fixture queries to per-league contracts, caching one
// binding per league address.
type Leagues struct {
	client *Client

	mu    sync.Mutex
	bound map[common.Address]*bind.BoundContract
}

func NewLeagues(client *Client) *Leagues {
	return &Leagues{
		client: client,
		bound:  make(map[common.Address]*bind.BoundContract),
	}
}

func (l *Leagues) league(addr common.Address) *bind.BoundContract {
	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok := l.bound[addr]; ok {
		return c
	}
	c := bind.NewBoundContract(addr, parsedLeagueABI, l.client.eth, l.client.eth, l.client.eth)
	l.bound[addr] = c
	return c
}

func (l *Leagues) IsFixtureScheduled(ctx context.Context, league common.Address, fixture *big.Int) (bool, error) {
	var out []interface{}
	err := l.league(league).Call(&bind.CallOpts{Context: ctx}, &out, "isFixtureScheduled", fixture)
	if err != nil {
		return false, fmt.Errorf("isFixtureScheduled: %w", err)
	}
	return out[0].(bool), nil
}

func (l *Leagues) IsFixtureResolved(ctx context.Context, league common.Address, fixture *big.Int, resolver common.Address) (bool, error) {
	var out []interface{}
	err := l.league(league).Call(&bind.CallOpts{Context: ctx}, &out, "isFixtureResolved", fixture, resolver)
	if err != nil {
		return false, fmt.Errorf("isFixtureResolved: %w", err)
	}
	// The contract reports {0,1}.
	return out[0].(uint8) == 1, nil
}

func (l *Leagues) GetResolution(ctx context.Context, league common.Address, fixture *big.Int, resolver common.Address) ([]byte, error) {
	var out []interface{}
	err := l.league(league).Call(&bind.CallOpts{Context: ctx}, &out, "getResolution", fixture, resolver)
	if err != nil {
		return nil, fmt.Errorf("getResolution: %w", err)
	}
	return out[0].([]byte), nil
}

func (l *Leagues) GetFixtureStart(ctx context.Context, league common.Address, fixture *big.Int) (*big.Int, error) {
	var out []interface{}
	err := l.league(league).Call(&bind.CallOpts{Context: ctx}, &out, "getFixtureStart", fixture)
	if err != nil {
		return nil, fmt.Errorf("getFixtureStart: %w", err)
	}
	return out[0].(*big.Int), nil
}
