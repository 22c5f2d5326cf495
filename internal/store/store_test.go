package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
)

var (
	hashA = common.HexToHash("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	hashB = common.HexToHash("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	acct  = common.HexToAddress("0x1111111111111111111111111111111111111111")
)

// each tests both implementations against the same lifecycle rules.
func each(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Helper()
	t.Run("mem", func(t *testing.T) {
		fn(t, NewMem())
	})
	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		fn(t, NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()})))
	})
}

func TestStore_AbsentIsNone(t *testing.T) {
	each(t, func(t *testing.T, s Store) {
		st, err := s.State(context.Background(), hashA)
		if err != nil {
			t.Fatal(err)
		}
		if st != StateNone {
			t.Fatalf("fresh hash state = %v, want NONE", st)
		}
	})
}

func TestStore_Lifecycle(t *testing.T) {
	each(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if err := s.PutUnclaimed(ctx, hashA); err != nil {
			t.Fatal(err)
		}
		if st, _ := s.State(ctx, hashA); st != StateUnclaimed {
			t.Fatalf("state = %v, want UNCLAIMED", st)
		}
		if err := s.MarkClaimed(ctx, hashA); err != nil {
			t.Fatal(err)
		}
		if st, _ := s.State(ctx, hashA); st != StateClaimed {
			t.Fatalf("state = %v, want CLAIMED", st)
		}
	})
}

func TestStore_CreateOnce(t *testing.T) {
	each(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if err := s.PutUnclaimed(ctx, hashA); err != nil {
			t.Fatal(err)
		}
		if err := s.PutUnclaimed(ctx, hashA); err != ErrExists {
			t.Fatalf("second create: err = %v, want ErrExists", err)
		}
		// Claimed hashes can never be re-created either.
		if err := s.MarkClaimed(ctx, hashA); err != nil {
			t.Fatal(err)
		}
		if err := s.PutUnclaimed(ctx, hashA); err != ErrExists {
			t.Fatalf("create after claim: err = %v, want ErrExists", err)
		}
	})
}

func TestStore_ClaimRequiresUnclaimed(t *testing.T) {
	each(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		if err := s.MarkClaimed(ctx, hashA); err != ErrNotUnclaimed {
			t.Fatalf("claim of absent record: err = %v, want ErrNotUnclaimed", err)
		}
		if err := s.PutUnclaimed(ctx, hashA); err != nil {
			t.Fatal(err)
		}
		if err := s.MarkClaimed(ctx, hashA); err != nil {
			t.Fatal(err)
		}
		if err := s.MarkClaimed(ctx, hashA); err != ErrNotUnclaimed {
			t.Fatalf("double claim: err = %v, want ErrNotUnclaimed", err)
		}
	})
}

func TestStore_SubjectIndex(t *testing.T) {
	each(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		got, err := s.BySubject(ctx, acct)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 0 {
			t.Fatal("fresh subject index must be empty")
		}

		if err := s.AppendSubject(ctx, acct, hashA); err != nil {
			t.Fatal(err)
		}
		if err := s.AppendSubject(ctx, acct, hashB); err != nil {
			t.Fatal(err)
		}
		got, err = s.BySubject(ctx, acct)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 || got[0] != hashA || got[1] != hashB {
			t.Fatalf("index = %v, want [hashA hashB] in insertion order", got)
		}
	})
}
