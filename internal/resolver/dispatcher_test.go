package resolver

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

var (
	leagueAddr   = common.HexToAddress("0xAAAA000000000000000000000000000000000001")
	resolverAddr = common.HexToAddress("0xBBBB000000000000000000000000000000000002")
	fixtureID    = big.NewInt(42)
)

// scriptPlugin lets each test script the plugin's behavior.
type scriptPlugin struct {
	validate func(ctx context.Context, call Call) (bool, error)
	resolve  func(ctx context.Context, call Call) (ResultCode, error)
}

func (p *scriptPlugin) SupportsLeague(common.Address) bool { return true }
func (p *scriptPlugin) ValidateSelector() Selector         { return SelectorOf("v()") }
func (p *scriptPlugin) ResolveSelector() Selector          { return SelectorOf("r()") }
func (p *scriptPlugin) Description() string                { return "scripted test plugin" }
func (p *scriptPlugin) Kind() string                       { return "test" }
func (p *scriptPlugin) Details() string                    { return "" }
func (p *scriptPlugin) Validate(ctx context.Context, call Call) (bool, error) {
	return p.validate(ctx, call)
}
func (p *scriptPlugin) Resolve(ctx context.Context, call Call) (ResultCode, error) {
	return p.resolve(ctx, call)
}

func newDispatcher(t *testing.T, p Plugin) *Dispatcher {
	t.Helper()
	return NewDispatcher(StaticRegistry{resolverAddr: p}, zap.NewNop())
}

// ── Frame construction ─────────────────────────────────────────────────────

func TestSplitWords(t *testing.T) {
	if got := SplitWords(nil); got != nil {
		t.Fatal("empty payload must produce no words")
	}
	words := SplitWords(bytes.Repeat([]byte{0xab}, 33))
	if len(words) != 2 {
		t.Fatalf("33 bytes should split into 2 words, got %d", len(words))
	}
	if words[1][0] != 0xab || words[1][1] != 0 {
		t.Fatal("tail word must be zero right-padded")
	}
}

func TestCallEncode_SlotLayout(t *testing.T) {
	call := Call{
		Selector: SelectorOf("validateBet(address,uint256,bytes32[])"),
		League:   leagueAddr,
		Fixture:  fixtureID,
		Payload:  SplitWords([]byte{0x01}),
	}
	raw := call.Encode()
	if len(raw) != 4+3*32 {
		t.Fatalf("frame length = %d, want %d", len(raw), 4+3*32)
	}
	// League is right-aligned in the first slot.
	if !bytes.Equal(raw[4+12:4+32], leagueAddr.Bytes()) {
		t.Fatal("league not right-aligned in slot 0")
	}
	if !bytes.Equal(raw[4:4+12], make([]byte, 12)) {
		t.Fatal("league slot not left-zero-padded")
	}
	// Fixture occupies the second slot, big-endian.
	if raw[4+63] != 42 {
		t.Fatal("fixture not big-endian in slot 1")
	}
	// Payload word follows in original order.
	if raw[4+64] != 0x01 {
		t.Fatal("payload word not in slot 2")
	}
}

func TestCallEncode_ResolutionAfterPayload(t *testing.T) {
	call := Call{
		League:     leagueAddr,
		Fixture:    fixtureID,
		Payload:    []Word{SideWord(1), SideWord(2)},
		Resolution: []Word{SideWord(3)},
	}
	raw := call.Encode()
	if raw[4+4*32+31] != 3 {
		t.Fatal("resolution words must follow payload words")
	}
}

// ── DispatchValidate ───────────────────────────────────────────────────────

func TestDispatchValidate_PassesFrame(t *testing.T) {
	var seen Call
	d := newDispatcher(t, &scriptPlugin{
		validate: func(_ context.Context, call Call) (bool, error) {
			seen = call
			return true, nil
		},
	})
	ok := d.DispatchValidate(context.Background(), resolverAddr, leagueAddr, fixtureID, []byte{0xee})
	if !ok {
		t.Fatal("expected valid")
	}
	if seen.League != leagueAddr || seen.Fixture.Int64() != 42 || len(seen.Payload) != 1 {
		t.Fatal("frame fields not forwarded to plugin")
	}
}

func TestDispatchValidate_UnknownResolver(t *testing.T) {
	d := NewDispatcher(StaticRegistry{}, zap.NewNop())
	if d.DispatchValidate(context.Background(), resolverAddr, leagueAddr, fixtureID, nil) {
		t.Fatal("unknown resolver must be invalid")
	}
}

func TestDispatchValidate_ErrorMeansInvalid(t *testing.T) {
	d := newDispatcher(t, &scriptPlugin{
		validate: func(context.Context, Call) (bool, error) {
			return true, errors.New("boom")
		},
	})
	if d.DispatchValidate(context.Background(), resolverAddr, leagueAddr, fixtureID, nil) {
		t.Fatal("plugin error must degrade to invalid")
	}
}

func TestDispatchValidate_PanicContained(t *testing.T) {
	d := newDispatcher(t, &scriptPlugin{
		validate: func(context.Context, Call) (bool, error) { panic("hostile plugin") },
	})
	if d.DispatchValidate(context.Background(), resolverAddr, leagueAddr, fixtureID, nil) {
		t.Fatal("panicking plugin must degrade to invalid")
	}
}

func TestDispatchValidate_BudgetExceeded(t *testing.T) {
	d := newDispatcher(t, &scriptPlugin{
		validate: func(ctx context.Context, _ Call) (bool, error) {
			<-ctx.Done()
			time.Sleep(10 * time.Millisecond)
			return true, nil
		},
	}).WithBudget(5 * time.Millisecond)
	if d.DispatchValidate(context.Background(), resolverAddr, leagueAddr, fixtureID, nil) {
		t.Fatal("budget exhaustion must degrade to invalid")
	}
}

// ── DispatchResolve ────────────────────────────────────────────────────────

func TestDispatchResolve_ResultForwarded(t *testing.T) {
	d := newDispatcher(t, &scriptPlugin{
		resolve: func(context.Context, Call) (ResultCode, error) { return HalfWin, nil },
	})
	got := d.DispatchResolve(context.Background(), resolverAddr, leagueAddr, fixtureID, nil, nil)
	if got != HalfWin {
		t.Fatalf("got %v, want HALF_WIN", got)
	}
}

func TestDispatchResolve_OutOfRangeClamped(t *testing.T) {
	d := newDispatcher(t, &scriptPlugin{
		resolve: func(context.Context, Call) (ResultCode, error) { return ResultCode(9), nil },
	})
	if got := d.DispatchResolve(context.Background(), resolverAddr, leagueAddr, fixtureID, nil, nil); got != Unresolved {
		t.Fatalf("out-of-range result must degrade to UNRESOLVED, got %v", got)
	}
}

func TestDispatchResolve_FailuresDegradeToUnresolved(t *testing.T) {
	cases := map[string]*scriptPlugin{
		"error": {resolve: func(context.Context, Call) (ResultCode, error) {
			return BackerWins, errors.New("boom")
		}},
		"panic": {resolve: func(context.Context, Call) (ResultCode, error) {
			panic("hostile plugin")
		}},
	}
	for name, p := range cases {
		d := newDispatcher(t, p)
		if got := d.DispatchResolve(context.Background(), resolverAddr, leagueAddr, fixtureID, nil, nil); got != Unresolved {
			t.Fatalf("%s: got %v, want UNRESOLVED", name, got)
		}
	}
}

func TestDispatchResolve_UnknownResolver(t *testing.T) {
	d := NewDispatcher(StaticRegistry{}, zap.NewNop())
	if got := d.DispatchResolve(context.Background(), resolverAddr, leagueAddr, fixtureID, nil, nil); got != Unresolved {
		t.Fatal("unknown resolver must resolve to UNRESOLVED")
	}
}

// ── Moneyline reference plugin ─────────────────────────────────────────────

func TestMoneyline_ValidateShape(t *testing.T) {
	m := &Moneyline{Leagues: []common.Address{leagueAddr}}
	d := NewDispatcher(StaticRegistry{resolverAddr: m}, zap.NewNop())

	pick := SideWord(2)
	if !d.DispatchValidate(context.Background(), resolverAddr, leagueAddr, fixtureID, pick[:]) {
		t.Fatal("one nonzero side word must validate")
	}
	if d.DispatchValidate(context.Background(), resolverAddr, leagueAddr, fixtureID, nil) {
		t.Fatal("empty payload must be invalid")
	}
	zero := Word{}
	if d.DispatchValidate(context.Background(), resolverAddr, leagueAddr, fixtureID, zero[:]) {
		t.Fatal("zero side must be invalid")
	}
}

func TestMoneyline_Resolve(t *testing.T) {
	m := &Moneyline{Leagues: []common.Address{leagueAddr}}
	d := NewDispatcher(StaticRegistry{resolverAddr: m}, zap.NewNop())

	pick, win, lose := SideWord(2), SideWord(2), SideWord(1)
	if got := d.DispatchResolve(context.Background(), resolverAddr, leagueAddr, fixtureID, pick[:], win[:]); got != BackerWins {
		t.Fatalf("picked winner: got %v, want BACKER_WINS", got)
	}
	if got := d.DispatchResolve(context.Background(), resolverAddr, leagueAddr, fixtureID, pick[:], lose[:]); got != BackerLoses {
		t.Fatalf("picked loser: got %v, want BACKER_LOSES", got)
	}

	voidFlag := SideWord(1)
	void := make([]byte, 0, 64)
	void = append(void, win[:]...)
	void = append(void, voidFlag[:]...)
	if got := d.DispatchResolve(context.Background(), resolverAddr, leagueAddr, fixtureID, pick[:], void); got != Push {
		t.Fatalf("voided fixture: got %v, want PUSH", got)
	}
}

func TestMoneyline_Capabilities(t *testing.T) {
	m := &Moneyline{Leagues: []common.Address{leagueAddr}}
	if !m.SupportsLeague(leagueAddr) {
		t.Fatal("configured league must be supported")
	}
	if m.SupportsLeague(common.HexToAddress("0x01")) {
		t.Fatal("unconfigured league must not be supported")
	}
	if m.ValidateSelector() == m.ResolveSelector() {
		t.Fatal("validate and resolve selectors must differ")
	}
	if m.Kind() != "moneyline" || m.Description() == "" {
		t.Fatal("capability metadata missing")
	}
}
