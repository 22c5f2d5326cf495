package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
)

// Redis key templates
const (
	stateKeyFmt   = "bet:state:%s"   // %s = bet hash, hex
	subjectKeyFmt = "bet:subject:%s" // %s = account address, lowercase hex
)

const (
	stateValUnclaimed = "unclaimed"
	stateValClaimed   = "claimed"
)

// Redis persists records in Redis. Record creation uses SETNX so the
// create-once guard holds even against a concurrent engine instance;
// promotion relies on the engine's per-operation serialization.
type Redis struct {
	rdb *redis.Client
}

func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

func stateKey(hash common.Hash) string {
	return fmt.Sprintf(stateKeyFmt, hash.Hex())
}

func subjectKey(subject common.Address) string {
	return fmt.Sprintf(subjectKeyFmt, strings.ToLower(subject.Hex()))
}

func (r *Redis) State(ctx context.Context, hash common.Hash) (State, error) {
	val, err := r.rdb.Get(ctx, stateKey(hash)).Result()
	if err == redis.Nil {
		return StateNone, nil
	}
	if err != nil {
		return StateNone, fmt.Errorf("get state: %w", err)
	}
	switch val {
	case stateValUnclaimed:
		return StateUnclaimed, nil
	case stateValClaimed:
		return StateClaimed, nil
	default:
		return StateNone, fmt.Errorf("corrupt state %q for %s", val, hash.Hex())
	}
}

func (r *Redis) PutUnclaimed(ctx context.Context, hash common.Hash) error {
	set, err := r.rdb.SetNX(ctx, stateKey(hash), stateValUnclaimed, 0).Result()
	if err != nil {
		return fmt.Errorf("setnx state: %w", err)
	}
	if !set {
		return ErrExists
	}
	return nil
}

func (r *Redis) MarkClaimed(ctx context.Context, hash common.Hash) error {
	cur, err := r.State(ctx, hash)
	if err != nil {
		return err
	}
	if cur != StateUnclaimed {
		return ErrNotUnclaimed
	}
	if err := r.rdb.Set(ctx, stateKey(hash), stateValClaimed, 0).Err(); err != nil {
		return fmt.Errorf("set state: %w", err)
	}
	return nil
}

func (r *Redis) AppendSubject(ctx context.Context, subject common.Address, hash common.Hash) error {
	if err := r.rdb.RPush(ctx, subjectKey(subject), hash.Hex()).Err(); err != nil {
		return fmt.Errorf("rpush subject index: %w", err)
	}
	return nil
}

func (r *Redis) BySubject(ctx context.Context, subject common.Address) ([]common.Hash, error) {
	vals, err := r.rdb.LRange(ctx, subjectKey(subject), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange subject index: %w", err)
	}
	hashes := make([]common.Hash, len(vals))
	for i, v := range vals {
		hashes[i] = common.HexToHash(v)
	}
	return hashes, nil
}
