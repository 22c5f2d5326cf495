package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Redis  RedisConfig
	Chain  ChainConfig
	Engine EngineConfig
	Server ServerConfig
}

type RedisConfig struct {
	// Addr empty means in-memory records and no event publishing (dev mode).
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
}

type ChainConfig struct {
	// DomainID is folded into every bet hash; bets signed for one domain
	// never replay on another.
	DomainID int64 `mapstructure:"domain_id"`
	// RPCURL empty means in-memory collaborators (dev mode).
	RPCURL               string `mapstructure:"rpc_url"`
	OperatorKey          string `mapstructure:"operator_key"`
	VaultAddress         string `mapstructure:"vault_address"`
	LeagueRegistryAddr   string `mapstructure:"league_registry_address"`
	ResolverRegistryAddr string `mapstructure:"resolver_registry_address"`
}

type EngineConfig struct {
	CustodyAddress  string `mapstructure:"custody_address"`
	FallbackAddress string `mapstructure:"fallback_address"`
	// MoneylineResolverAddr, when set, registers the built-in moneyline
	// plugin under that resolver address. MoneylineLeagueAddr names the
	// league it supports; in dev mode the league is also seeded into the
	// in-memory registries.
	MoneylineResolverAddr string `mapstructure:"moneyline_resolver_address"`
	MoneylineLeagueAddr   string `mapstructure:"moneyline_league_address"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("chain.domain_id", 1)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")
	_ = v.ReadInConfig()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicit env bindings
	bindings := map[string]string{
		"redis.addr":                        "REDIS_ADDR",
		"redis.password":                    "REDIS_PASSWORD",
		"chain.domain_id":                   "CHAIN_DOMAIN_ID",
		"chain.rpc_url":                     "RPC_URL",
		"chain.operator_key":                "OPERATOR_KEY",
		"chain.vault_address":               "VAULT_CONTRACT",
		"chain.league_registry_address":     "LEAGUE_REGISTRY_CONTRACT",
		"chain.resolver_registry_address":   "RESOLVER_REGISTRY_CONTRACT",
		"engine.custody_address":            "CUSTODY_ADDRESS",
		"engine.fallback_address":           "FALLBACK_ADDRESS",
		"engine.moneyline_resolver_address": "MONEYLINE_RESOLVER_ADDRESS",
		"engine.moneyline_league_address":   "MONEYLINE_LEAGUE_ADDRESS",
		"server.port":                       "PORT",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	type req struct {
		val  string
		name string
	}
	for _, r := range []req{
		{c.Engine.CustodyAddress, "CUSTODY_ADDRESS"},
		{c.Engine.FallbackAddress, "FALLBACK_ADDRESS"},
	} {
		if r.val == "" {
			return fmt.Errorf("required config missing: %s", r.name)
		}
	}
	if c.Chain.DomainID == 0 {
		return fmt.Errorf("required config missing: CHAIN_DOMAIN_ID")
	}
	// A moneyline resolver without a league would advertise no capability.
	if c.Engine.MoneylineResolverAddr != "" && c.Engine.MoneylineLeagueAddr == "" {
		return fmt.Errorf("required config missing with MONEYLINE_RESOLVER_ADDRESS set: MONEYLINE_LEAGUE_ADDRESS")
	}
	// On-chain collaborators are all-or-nothing.
	if c.Chain.RPCURL != "" {
		for _, r := range []req{
			{c.Chain.OperatorKey, "OPERATOR_KEY"},
			{c.Chain.VaultAddress, "VAULT_CONTRACT"},
			{c.Chain.LeagueRegistryAddr, "LEAGUE_REGISTRY_CONTRACT"},
			{c.Chain.ResolverRegistryAddr, "RESOLVER_REGISTRY_CONTRACT"},
		} {
			if r.val == "" {
				return fmt.Errorf("required config missing with RPC_URL set: %s", r.name)
			}
		}
	}
	return nil
}
