package resolver

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// DefaultBudget bounds one plugin call. Enough for arithmetic and a few
// lookups; not enough to stall settlement.
const DefaultBudget = 100 * time.Millisecond

var errBudgetExceeded = errors.New("resolver: execution budget exceeded")

// Dispatcher frames and issues bounded, read-only calls into registered
// plugins. A failing, slow, panicking, or out-of-range plugin never
// surfaces as an error: validate degrades to false, resolve to Unresolved.
type Dispatcher struct {
	registry Registry
	budget   time.Duration
	log      *zap.Logger
}

func NewDispatcher(registry Registry, log *zap.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, budget: DefaultBudget, log: log}
}

// WithBudget overrides the per-call budget (tests only).
func (d *Dispatcher) WithBudget(budget time.Duration) *Dispatcher {
	d.budget = budget
	return d
}

// DispatchValidate asks the resolver whether the bet payload is
// well-formed for the given league and fixture.
func (d *Dispatcher) DispatchValidate(ctx context.Context, resolverAddr, league common.Address, fixture *big.Int, payload []byte) bool {
	plugin, ok := d.registry.Lookup(resolverAddr)
	if !ok {
		return false
	}
	call := Call{
		Selector: plugin.ValidateSelector(),
		League:   league,
		Fixture:  cloneInt(fixture),
		Payload:  SplitWords(payload),
	}

	var valid bool
	err := d.bounded(ctx, func(ctx context.Context) error {
		v, err := plugin.Validate(ctx, call)
		valid = v
		return err
	})
	if err != nil {
		d.log.Warn("resolver validate dispatch failed",
			zap.String("resolver", resolverAddr.Hex()),
			zap.Error(err),
		)
		return false
	}
	return valid
}

// DispatchResolve asks the resolver for the fixture outcome given the
// league's resolution data. Any failure degrades to Unresolved.
func (d *Dispatcher) DispatchResolve(ctx context.Context, resolverAddr, league common.Address, fixture *big.Int, payload, resolutionData []byte) ResultCode {
	plugin, ok := d.registry.Lookup(resolverAddr)
	if !ok {
		return Unresolved
	}
	call := Call{
		Selector:   plugin.ResolveSelector(),
		League:     league,
		Fixture:    cloneInt(fixture),
		Payload:    SplitWords(payload),
		Resolution: SplitWords(resolutionData),
	}

	var result ResultCode
	err := d.bounded(ctx, func(ctx context.Context) error {
		r, err := plugin.Resolve(ctx, call)
		result = r
		return err
	})
	if err != nil {
		d.log.Warn("resolver resolve dispatch failed",
			zap.String("resolver", resolverAddr.Hex()),
			zap.Error(err),
		)
		return Unresolved
	}
	if !result.InRange() {
		// Undefined per-resolver behavior; the caller's fallback path owns it.
		return Unresolved
	}
	return result
}

// bounded runs fn on its own goroutine under the budget, containing
// panics. The goroutine may outlive a timed-out call; fn only ever
// touches its own copies, so it cannot mutate dispatcher state.
func (d *Dispatcher) bounded(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, d.budget)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- errors.New("resolver: plugin panic")
			}
		}()
		done <- fn(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return errBudgetExceeded
	}
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
