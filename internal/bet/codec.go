package bet

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// schemaTag is the keccak of the canonical field-name/type string. Folding
// it into every inner hash keeps bets from colliding with any other struct
// hashed under a different schema.
var schemaTag = crypto.Keccak256Hash([]byte(
	"Bet(address backer,address layer,address token,address feeRecipient," +
		"address league,address resolver,uint256 backerStake,uint256 backerFee," +
		"uint256 layerFee,uint256 expiration,uint256 fixture,uint256 odds,bytes payload)",
))

// Encode assembles a Bet from positional subject and parameter arrays.
// Purely structural: no validation happens here.
//
// Subject order: backer, layer, token, feeRecipient, league, resolver.
// Param order: backerStake, backerFee, layerFee, expiration, fixture, odds.
func Encode(subjects [6]common.Address, params [6]*big.Int, payload []byte) Bet {
	return Bet{
		Backer:       subjects[0],
		Layer:        subjects[1],
		Token:        subjects[2],
		FeeRecipient: subjects[3],
		League:       subjects[4],
		Resolver:     subjects[5],
		BackerStake:  params[0],
		BackerFee:    params[1],
		LayerFee:     params[2],
		Expiration:   params[3],
		Fixture:      params[4],
		Odds:         params[5],
		Payload:      payload,
	}
}

// ComputeHash derives the replay-protected bet hash:
//
//	inner  = keccak256(schemaTag || slots(subjects) || slots(params) || keccak256(payload))
//	outer  = keccak256(slot(domain) || slot(nonce) || inner)
//
// Every field occupies a 32-byte slot (addresses right-aligned, uints
// big-endian left-padded). Hashing the payload separately keeps the outer
// cost flat regardless of payload length while still binding every byte.
func ComputeHash(b *Bet, domain, nonce *big.Int) Hash {
	// 14 slots: tag, 6 subjects, 6 params, payload hash
	encoded := make([]byte, 14*32)
	copy(encoded[0:32], schemaTag[:])

	subjects := b.Subjects()
	for i, addr := range subjects {
		off := (1 + i) * 32
		copy(encoded[off+12:off+32], addr.Bytes()) // addr right-aligned in its slot
	}

	params := b.Params()
	for i, p := range params {
		off := (7 + i) * 32
		fillSlot(encoded[off:off+32], p)
	}

	payloadHash := crypto.Keccak256Hash(b.Payload)
	copy(encoded[13*32:], payloadHash[:])

	inner := crypto.Keccak256Hash(encoded)

	outer := make([]byte, 3*32)
	fillSlot(outer[0:32], domain)
	fillSlot(outer[32:64], nonce)
	copy(outer[64:96], inner[:])
	return crypto.Keccak256Hash(outer)
}

func fillSlot(dst []byte, v *big.Int) {
	if v == nil {
		return
	}
	v.FillBytes(dst)
}
