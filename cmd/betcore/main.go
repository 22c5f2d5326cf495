package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/oddsware/betcore/internal/chain"
	"github.com/oddsware/betcore/internal/config"
	"github.com/oddsware/betcore/internal/engine"
	"github.com/oddsware/betcore/internal/events"
	"github.com/oddsware/betcore/internal/httpapi"
	"github.com/oddsware/betcore/internal/inmem"
	"github.com/oddsware/betcore/internal/metrics"
	"github.com/oddsware/betcore/internal/resolver"
	"github.com/oddsware/betcore/internal/store"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync() //nolint:errcheck

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Redis (optional: records + event publishing) ──────────────────────────
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("redis ping failed", zap.Error(err))
		}
	}

	var records store.Store = store.NewMem()
	sinks := events.Multi{events.NewLog(log)}
	if rdb != nil {
		records = store.NewRedis(rdb)
		sinks = append(sinks, events.NewRedis(rdb, log))
	} else {
		log.Warn("REDIS_ADDR unset: bet records are in-memory only")
	}

	// ── Resolver plugins ──────────────────────────────────────────────────────
	registry := resolver.StaticRegistry{}
	var moneylineAddr, moneylineLeague common.Address
	if cfg.Engine.MoneylineResolverAddr != "" {
		moneylineAddr = common.HexToAddress(cfg.Engine.MoneylineResolverAddr)
		moneylineLeague = common.HexToAddress(cfg.Engine.MoneylineLeagueAddr)
		registry[moneylineAddr] = &resolver.Moneyline{Leagues: []common.Address{moneylineLeague}}
		log.Info("moneyline resolver registered",
			zap.String("address", moneylineAddr.Hex()),
			zap.String("league", moneylineLeague.Hex()),
		)
	}

	// ── Collaborators: on-chain or dev in-memory ──────────────────────────────
	custody := common.HexToAddress(cfg.Engine.CustodyAddress)
	var (
		vault       engine.Vault
		leagues     engine.LeagueSource
		leagueReg   engine.LeagueRegistry
		resolverReg engine.ResolverRegistry
	)
	if cfg.Chain.RPCURL != "" {
		onchain, err := chain.NewClient(cfg)
		if err != nil {
			log.Fatal("chain client init failed", zap.Error(err))
		}
		vault = chain.NewVault(onchain, common.HexToAddress(cfg.Chain.VaultAddress))
		leagues = chain.NewLeagues(onchain)
		leagueReg = chain.NewLeagueRegistry(onchain, common.HexToAddress(cfg.Chain.LeagueRegistryAddr))
		resolverReg = chain.NewResolverRegistry(onchain, common.HexToAddress(cfg.Chain.ResolverRegistryAddr))
		log.Info("on-chain collaborators bound",
			zap.String("vault", cfg.Chain.VaultAddress),
			zap.String("operator", onchain.OperatorAddress().Hex()),
		)
	} else {
		log.Warn("RPC_URL unset: using dev in-memory collaborators")
		vault = inmem.NewCustodyVault(custody)
		leagues = inmem.NewLeagues()
		devResolvers := inmem.NewResolverRegistry()
		// Seed the moneyline pairing so dev mode can accept bets.
		if moneylineAddr != (common.Address{}) {
			devResolvers.Use(moneylineLeague, moneylineAddr)
			leagueReg = inmem.NewLeagueRegistry(moneylineLeague)
		} else {
			leagueReg = inmem.NewLeagueRegistry()
		}
		resolverReg = devResolvers
	}

	// ── Engine ────────────────────────────────────────────────────────────────
	eng := engine.New(engine.Deps{
		Domain:           big.NewInt(cfg.Chain.DomainID),
		Custody:          custody,
		Fallback:         common.HexToAddress(cfg.Engine.FallbackAddress),
		Vault:            vault,
		Leagues:          leagues,
		LeagueRegistry:   leagueReg,
		ResolverRegistry: resolverReg,
		Dispatcher:       resolver.NewDispatcher(registry, log),
		Store:            records,
		Events:           sinks,
		Log:              log,
	}, engine.WithRecorder(metrics.New()))

	// ── HTTP server ───────────────────────────────────────────────────────────
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", func(c *gin.Context) {
		if rdb != nil {
			if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "redis unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	httpapi.NewHandler(eng, log).Register(r.Group("/api"), httpapi.WalletAuth(httpapi.ActionSubmitBet, rdb))
	if rdb == nil {
		log.Warn("REDIS_ADDR unset: auth nonce dedup is in-process only")
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown", zap.Error(err))
	}
	cancel()
	if rdb != nil {
		_ = rdb.Close()
	}
}
