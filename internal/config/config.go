// Package config implements the CLI & configuration surface (C9): the flag
// table from SPEC_FULL §6, bound through viper so every value is settable
// by flag, environment variable, or config file, plus the dex.json pool
// manifest loader. Grounded on
// _examples/poaiw-blockchain-paw/cmd/pawd/cmd/root.go's cobra+viper wiring
// pattern, scaled down to a single flat command instead of a cosmos-sdk
// daemon's subcommand tree.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"github.com/solroute-arb/arbengine/internal/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is every CLI-configurable value the engine's bootstrap needs, per
// SPEC_FULL §6's flag table.
type Config struct {
	DexJSONPath        string
	KeypairPath        string
	KeypairPassword    string
	GRPCURL            string
	GRPCMethod         string
	RPCURL             string
	FollowMints        []solana.PublicKey
	ArbMint            solana.PublicKey
	ArbAmountIn        math.Int
	ArbSize            int
	ArbMinProfit       math.Int
	TipBpsNumerator    uint64
	TipBpsDenominator  uint64
	ArbChannelCapacity int
	ProcessorSize      int
	JitoRegion         string
	JitoUUID           string
	StandardProgram    bool
	LogLevel           string
}

// BindFlags registers every SPEC_FULL §6 flag on cmd and binds it through
// viper, so RPC_URL / ARB_MINT / etc. environment variables and a config
// file both work as overrides, in the same ReadPersistentCommandFlags
// + viper.BindPFlag pattern.
func BindFlags(cmd *cobra.Command, v *viper.Viper) {
	flags := cmd.PersistentFlags()
	flags.String("dex-json", "dex.json", "path to the pool manifest")
	flags.String("keypair", "", "path to the encrypted keypair file")
	flags.String("grpc-url", "", "geyser-style push subscription endpoint")
	flags.String("grpc-method", "/geyser.Geyser/Subscribe", "server-streaming RPC method to subscribe on")
	flags.String("rpc-url", "", "Solana JSON-RPC endpoint")
	flags.StringSlice("follow-mint", nil, "mint to restrict cycle traversal to (repeatable)")
	flags.String("arb-mint", "", "the mint the engine holds and arbitrages from/to")
	flags.String("arb-amount-in", "", "fixed probe amount in base units (0 = engine default)")
	flags.Int("arb-size", 4, "number of independent arb worker consumers")
	flags.String("arb-min-profit", "0", "minimum profit in base units to submit a route")
	flags.Uint64("tip-bps-numerator", 0, "jito tip numerator, as a fraction of realized profit")
	flags.Uint64("tip-bps-denominator", 10_000, "jito tip denominator")
	flags.Int("arb-channel-capacity", 1024, "per-worker balance-change channel capacity")
	flags.Int("processor-size", 4, "number of ingestion processor workers")
	flags.String("jito-region", "", "jito block-engine region")
	flags.String("jito-uuid", "", "jito auth uuid")
	flags.Bool("standard-program", false, "submit via plain sendTransaction instead of a jito bundle")
	flags.String("log-level", "info", "logrus level")

	v.SetEnvPrefix("arbengine")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	_ = v.BindPFlags(flags)
}

// FromViper materializes a Config from bound flag/env/file values. Called
// once, from the root command's RunE.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		DexJSONPath:        v.GetString("dex-json"),
		KeypairPath:        v.GetString("keypair"),
		GRPCURL:            v.GetString("grpc-url"),
		GRPCMethod:         v.GetString("grpc-method"),
		RPCURL:             v.GetString("rpc-url"),
		ArbSize:            v.GetInt("arb-size"),
		TipBpsNumerator:    v.GetUint64("tip-bps-numerator"),
		TipBpsDenominator:  v.GetUint64("tip-bps-denominator"),
		ArbChannelCapacity: v.GetInt("arb-channel-capacity"),
		ProcessorSize:      v.GetInt("processor-size"),
		JitoRegion:         v.GetString("jito-region"),
		JitoUUID:           v.GetString("jito-uuid"),
		StandardProgram:    v.GetBool("standard-program"),
		LogLevel:           v.GetString("log-level"),
	}

	if raw := v.GetString("arb-mint"); raw != "" {
		key, err := solana.PublicKeyFromBase58(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse arb-mint: %w", err)
		}
		cfg.ArbMint = key
	}

	for _, raw := range v.GetStringSlice("follow-mint") {
		key, err := solana.PublicKeyFromBase58(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse follow-mint %q: %w", raw, err)
		}
		cfg.FollowMints = append(cfg.FollowMints, key)
	}

	amountIn := math.ZeroInt()
	if raw := v.GetString("arb-amount-in"); raw != "" && raw != "0" {
		parsed, ok := math.NewIntFromString(raw)
		if !ok {
			return Config{}, fmt.Errorf("parse arb-amount-in %q", raw)
		}
		amountIn = parsed
	}
	cfg.ArbAmountIn = amountIn

	minProfit := math.ZeroInt()
	if raw := v.GetString("arb-min-profit"); raw != "" {
		parsed, ok := math.NewIntFromString(raw)
		if !ok {
			return Config{}, fmt.Errorf("parse arb-min-profit %q", raw)
		}
		minProfit = parsed
	}
	cfg.ArbMinProfit = minProfit

	return cfg, nil
}

// JitoEndpoint builds the jito block-engine bundle endpoint for the
// configured region, per https://docs.jito.wtf/lowlatencytxnsend/'s regional
// URL scheme. Returns "" when no region is configured (executor.New then
// runs in standalone/standard-submit mode).
func (c Config) JitoEndpoint() string {
	if c.JitoRegion == "" {
		return ""
	}
	endpoint := fmt.Sprintf("https://%s.mainnet.block-engine.jito.wtf/api/v1/bundles", c.JitoRegion)
	if c.JitoUUID != "" {
		endpoint += "?uuid=" + c.JitoUUID
	}
	return endpoint
}

// FollowMintSet returns FollowMints as a lookup set, for graph.Build.
func (c Config) FollowMintSet() map[solana.PublicKey]bool {
	out := make(map[solana.PublicKey]bool, len(c.FollowMints))
	for _, m := range c.FollowMints {
		out[m] = true
	}
	return out
}

// LoadManifest reads and decodes the dex.json pool manifest, dropping any
// entry whose mints are both outside followMints (SPEC_FULL §6's manifest
// filtering step), matching
// _examples/original_source/bin/arb/src/arb_bot.rs's bootstrap filter.
func LoadManifest(path string, followMints map[solana.PublicKey]bool) ([]types.ManifestEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var entries []types.ManifestEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	filtered := entries[:0]
	for _, e := range entries {
		if len(followMints) == 0 || followMints[e.MintA] || followMints[e.MintB] {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}
