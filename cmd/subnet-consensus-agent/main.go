// Command subnet-consensus-agent runs the per-node validator/attester
// lifecycle for a single subnet against a live Substrate-style chain.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hayotensor/subnet-consensus-agent/chain"
	"github.com/hayotensor/subnet-consensus-agent/config"
	"github.com/hayotensor/subnet-consensus-agent/consensus"
	"github.com/hayotensor/subnet-consensus-agent/internal/health"
	"github.com/hayotensor/subnet-consensus-agent/internal/logging"
	"github.com/hayotensor/subnet-consensus-agent/internal/metrics"
	"github.com/hayotensor/subnet-consensus-agent/internal/scorecache"
	"github.com/hayotensor/subnet-consensus-agent/scoring"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subnet-consensus-agent",
		Short: "Runs the subnet validator/attester consensus agent",
		RunE:  runAgent,
	}
	config.Flags(cmd.Flags())
	return cmd
}

func runAgent(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(logging.Config{
		Level:      cfg.LogLevel,
		Highlight:  cfg.LogHighlight,
		Dir:        cfg.LogDir,
		MaxSizeMB:  50,
		MaxBackups: 5,
	})
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chainClient, err := chain.New(ctx, cfg.RPCEndpoint, cfg.BlockSecs, cfg.RPCCallsPerSecond)
	if err != nil {
		return fmt.Errorf("connect to chain: %w", err)
	}
	defer chainClient.Close()

	phrase := os.Getenv(cfg.MnemonicEnvVar)
	if phrase == "" {
		return fmt.Errorf("env var %s is not set", cfg.MnemonicEnvVar)
	}
	signer, err := chain.NewMnemonicSigner(phrase)
	if err != nil {
		return fmt.Errorf("derive signer: %w", err)
	}

	probe := scoring.New(noopDirectory{}, noopSampler{}, cfg.ProbeDeadline)

	loop := consensus.NewConsensusLoop(cfg.SubnetPath, chainClient, probe, signer, log)

	if cfg.ScoreCacheDir != "" {
		cache, err := scorecache.Open(cfg.ScoreCacheDir)
		if err != nil {
			return fmt.Errorf("open score cache: %w", err)
		}
		defer cache.Close()
		// Seeding previous_epoch_scores needs a subnet id, which only
		// exists once activation commits; ConsensusLoop does the Load
		// itself from inside ActivationDriver.commitActivated.
		loop.SetScoreCache(cache)
	}

	if cfg.MetricsAddr != "" {
		m, err := metrics.New(prometheus.DefaultRegisterer)
		if err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		loop.SetMetrics(m)
	}

	supervisor := consensus.NewSupervisor(loop, log)
	supervisor.Start(ctx)
	defer supervisor.Stop()

	if cfg.MetricsAddr != "" {
		healthServer := health.NewServer(cfg.MetricsAddr, supervisor)
		healthServer.Start()
		defer healthServer.Shutdown(ctx)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	log.Info("shutdown signal received")
	return nil
}

// noopDirectory/noopSampler are placeholders until the out-of-scope DHT
// layer is wired in; they let the binary start and idle rather than crash
// when no peer directory is configured.
type noopDirectory struct{}

func (noopDirectory) Peers(context.Context, uint64) ([]consensus.PeerId, error) { return nil, nil }

type noopSampler struct{}

func (noopSampler) Sample(context.Context, consensus.PeerId) (float64, float64, float64, error) {
	return 0, 0, 0, nil
}
