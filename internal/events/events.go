// Package events delivers settlement events to downstream consumers.
package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/oddsware/betcore/internal/engine"
)

// Redis key the stream sink publishes to.
const StreamKey = "betcore:events"

// Log writes events to the structured log.
type Log struct {
	log *zap.Logger
}

func NewLog(log *zap.Logger) *Log { return &Log{log: log} }

func (s *Log) BetSubmitted(_ context.Context, ev engine.BetSubmitted) {
	s.log.Info("event: bet submitted",
		zap.String("hash", ev.Hash.Hex()),
		zap.String("backer", ev.Backer.Hex()),
		zap.String("layer", ev.Layer.Hex()),
		zap.String("league", ev.League.Hex()),
		zap.String("resolver", ev.Resolver.Hex()),
		zap.String("stake", ev.BackerStake.String()),
		zap.String("odds", ev.Odds.String()),
		zap.String("nonce", ev.Nonce.String()),
	)
}

func (s *Log) BetClaimed(_ context.Context, ev engine.BetClaimed) {
	s.log.Info("event: bet claimed",
		zap.String("hash", ev.Hash.Hex()),
		zap.String("result", ev.Result.String()),
	)
}

// envelope tags the JSON published by the Redis sink.
type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Redis publishes JSON envelopes onto a Redis list for external
// consumers. Publish failures are logged, never surfaced: events fire
// after their operation committed.
type Redis struct {
	rdb *redis.Client
	log *zap.Logger
}

func NewRedis(rdb *redis.Client, log *zap.Logger) *Redis {
	return &Redis{rdb: rdb, log: log}
}

func (s *Redis) BetSubmitted(ctx context.Context, ev engine.BetSubmitted) {
	s.publish(ctx, envelope{Type: "bet_submitted", Data: ev})
}

func (s *Redis) BetClaimed(ctx context.Context, ev engine.BetClaimed) {
	s.publish(ctx, envelope{Type: "bet_claimed", Data: ev})
}

func (s *Redis) publish(ctx context.Context, env envelope) {
	raw, err := json.Marshal(env)
	if err != nil {
		s.log.Error("event marshal failed", zap.String("type", env.Type), zap.Error(err))
		return
	}
	if err := s.rdb.RPush(ctx, StreamKey, string(raw)).Err(); err != nil {
		s.log.Error("event publish failed", zap.String("type", env.Type), zap.Error(err))
	}
}

// Multi fans one event out to several sinks in order.
type Multi []engine.EventSink

func (m Multi) BetSubmitted(ctx context.Context, ev engine.BetSubmitted) {
	for _, s := range m {
		s.BetSubmitted(ctx, ev)
	}
}

func (m Multi) BetClaimed(ctx context.Context, ev engine.BetClaimed) {
	for _, s := range m {
		s.BetClaimed(ctx, ev)
	}
}
