// Package resolver dispatches validation and resolution calls into
// pluggable third-party outcome resolvers through one fixed calling
// convention: a 4-byte selector followed by 32-byte argument slots.
package resolver

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Word is one fixed-width argument slot.
type Word [32]byte

// Selector identifies a plugin entry point, derived from its signature
// string the same way solidity derives function selectors.
type Selector [4]byte

// SelectorOf computes the 4-byte selector for a signature string such as
// "validateBet(address,uint256,bytes32[])".
func SelectorOf(signature string) Selector {
	var s Selector
	copy(s[:], crypto.Keccak256([]byte(signature))[:4])
	return s
}

// Call is one framed entry-point invocation. Slot layout matches the wire
// convention: league (address right-aligned), fixture, then the payload
// split into words in original order; resolve calls append the resolution
// data words after the payload.
type Call struct {
	Selector   Selector
	League     common.Address
	Fixture    *big.Int
	Payload    []Word
	Resolution []Word // nil for validate calls
}

// Encode flattens the call to wire form: selector || slots.
func (c *Call) Encode() []byte {
	n := len(c.Payload) + len(c.Resolution) + 2
	out := make([]byte, 4, 4+n*32)
	copy(out, c.Selector[:])

	var slot Word
	copy(slot[12:], c.League.Bytes())
	out = append(out, slot[:]...)

	slot = Word{}
	if c.Fixture != nil {
		c.Fixture.FillBytes(slot[:])
	}
	out = append(out, slot[:]...)

	for _, w := range c.Payload {
		out = append(out, w[:]...)
	}
	for _, w := range c.Resolution {
		out = append(out, w[:]...)
	}
	return out
}

// SplitWords packs raw bytes into 32-byte words in original order, zero
// right-padding the final word. Empty input yields no words.
func SplitWords(data []byte) []Word {
	if len(data) == 0 {
		return nil
	}
	words := make([]Word, (len(data)+31)/32)
	for i := range words {
		copy(words[i][:], data[i*32:])
	}
	return words
}

// Plugin is one third-party resolver. Validate and Resolve must be
// read-only: the dispatcher hands them defensive copies and discards
// everything but the return value. Either may take arbitrarily long or
// panic; the dispatcher bounds and contains both.
type Plugin interface {
	// Capability discovery.
	SupportsLeague(league common.Address) bool
	ValidateSelector() Selector
	ResolveSelector() Selector
	Description() string
	Kind() string
	Details() string

	// Dispatched entry points.
	Validate(ctx context.Context, call Call) (bool, error)
	Resolve(ctx context.Context, call Call) (ResultCode, error)
}

// Registry resolves a resolver address to its plugin.
type Registry interface {
	Lookup(resolver common.Address) (Plugin, bool)
}

// StaticRegistry is a fixed address→plugin table.
type StaticRegistry map[common.Address]Plugin

func (r StaticRegistry) Lookup(resolver common.Address) (Plugin, bool) {
	p, ok := r[resolver]
	return p, ok
}
