// Package config implements the agent's config loader (D4): CLI flags, env
// vars, and an optional config file are merged through viper/pflag, then
// validated into a Config the rest of the program depends on directly --
// cmd/ is the only caller, the consensus core never imports this package.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Flag/env keys, exported so cmd/ and tests share the same names.
const (
	SubnetPathKey      = "subnet-path"
	RPCEndpointKey     = "rpc-endpoint"
	BlockSecsKey       = "block-secs"
	RPCCallsPerSecKey  = "rpc-calls-per-second"
	MnemonicEnvKey     = "mnemonic-env"
	LogLevelKey        = "log-level"
	LogHighlightKey    = "log-highlight"
	LogDirKey          = "log-dir"
	MetricsAddrKey     = "metrics-addr"
	ScoreCacheDirKey   = "score-cache-dir"
	ProbeDeadlineKey   = "probe-deadline"
	ConfigFileKey      = "config-file"
)

// envPrefix namespaces every env-var binding, e.g. SUBNET_AGENT_RPC_ENDPOINT.
const envPrefix = "subnet_agent"

// Config is the fully validated, merged configuration the CLI entrypoint
// builds once at startup and threads into chain.Client, chain.MnemonicSigner,
// scoring.Probe, and internal/logging -- never into the consensus package
// itself, which only ever sees the interfaces it was handed.
type Config struct {
	SubnetPath        string
	RPCEndpoint       string
	BlockSecs         time.Duration
	RPCCallsPerSecond float64
	MnemonicEnvVar    string
	LogLevel          string
	LogHighlight      string
	LogDir            string
	MetricsAddr       string
	ScoreCacheDir     string
	ProbeDeadline     time.Duration
}

// Flags registers every flag this agent accepts on fs, with the defaults
// used when neither a flag, env var, nor config file sets a value.
func Flags(fs *pflag.FlagSet) {
	fs.String(SubnetPathKey, "", "on-chain path identifying this subnet (required)")
	fs.String(RPCEndpointKey, "ws://127.0.0.1:9944", "chain RPC endpoint (ws:// or http://)")
	fs.Duration(BlockSecsKey, 6*time.Second, "chain's fixed block time")
	fs.Float64(RPCCallsPerSecKey, 20, "client-side RPC rate limit")
	fs.String(MnemonicEnvKey, "PHRASE", "name of the env var holding the signer's mnemonic phrase")
	fs.String(LogLevelKey, "info", "log level: debug, info, warn, error")
	fs.String(LogHighlightKey, "auto", "console color highlighting: auto, colors, plain")
	fs.String(LogDirKey, "", "directory for rotated JSON log files (disabled if empty)")
	fs.String(MetricsAddrKey, "", "bind address for the /healthz and /metrics endpoints (disabled if empty)")
	fs.String(ScoreCacheDirKey, "", "directory for the optional on-disk score cache (disabled if empty)")
	fs.Duration(ProbeDeadlineKey, 5*time.Second, "per-peer timeout for the scoring probe's fan-out")
	fs.String(ConfigFileKey, "", "optional path to a YAML config file")
}

// Load merges fs (already parsed), process env vars under envPrefix, and
// an optional YAML file at ConfigFileKey, then validates the result.
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}

	if file := v.GetString(ConfigFileKey); file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	cfg := Config{
		SubnetPath:        v.GetString(SubnetPathKey),
		RPCEndpoint:       v.GetString(RPCEndpointKey),
		BlockSecs:         v.GetDuration(BlockSecsKey),
		RPCCallsPerSecond: cast.ToFloat64(v.Get(RPCCallsPerSecKey)),
		MnemonicEnvVar:    v.GetString(MnemonicEnvKey),
		LogLevel:          v.GetString(LogLevelKey),
		LogHighlight:      v.GetString(LogHighlightKey),
		LogDir:            v.GetString(LogDirKey),
		MetricsAddr:       v.GetString(MetricsAddrKey),
		ScoreCacheDir:     v.GetString(ScoreCacheDirKey),
		ProbeDeadline:     v.GetDuration(ProbeDeadlineKey),
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.SubnetPath == "" {
		return fmt.Errorf("%s is required", SubnetPathKey)
	}
	if c.RPCEndpoint == "" {
		return fmt.Errorf("%s is required", RPCEndpointKey)
	}
	if c.BlockSecs <= 0 {
		return fmt.Errorf("%s must be positive", BlockSecsKey)
	}
	if c.RPCCallsPerSecond <= 0 {
		return fmt.Errorf("%s must be positive", RPCCallsPerSecKey)
	}
	switch c.LogHighlight {
	case "auto", "colors", "plain":
	default:
		return fmt.Errorf("%s must be one of auto, colors, plain", LogHighlightKey)
	}
	return nil
}
