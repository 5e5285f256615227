package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inedibleX/goat-trading/internal/config"
	"github.com/inedibleX/goat-trading/internal/pricing"
	"github.com/inedibleX/goat-trading/internal/replay"
	"github.com/inedibleX/goat-trading/internal/storage"
)

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReplay(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Journal == "" {
		return fmt.Errorf("journal path is required")
	}
	if !common.IsHexAddress(cfg.Base) {
		return fmt.Errorf("base asset address is required")
	}
	if cfg.Treasury != "" && !common.IsHexAddress(cfg.Treasury) {
		return fmt.Errorf("invalid treasury address: %q", cfg.Treasury)
	}
	if cfg.FeeBps >= pricing.BpsDenominator {
		return fmt.Errorf("fee-bps %d must be below %d", cfg.FeeBps, pricing.BpsDenominator)
	}
	if cfg.ProtocolFeeShareBps > pricing.BpsDenominator {
		return fmt.Errorf("protocol-fee-share-bps %d must not exceed %d", cfg.ProtocolFeeShareBps, pricing.BpsDenominator)
	}

	var sweepMin *big.Int
	if cfg.ProtocolSweepMin != "" {
		parsed, ok := new(big.Int).SetString(cfg.ProtocolSweepMin, 10)
		if !ok {
			return fmt.Errorf("invalid protocol-sweep-min: %q", cfg.ProtocolSweepMin)
		}
		sweepMin = parsed
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	events := storage.NewJsonlStorage(cfg.Out)

	venue, err := replay.NewVenue(replay.VenueConfig{
		Base:                common.HexToAddress(cfg.Base),
		Treasury:            common.HexToAddress(cfg.Treasury),
		FeeBps:              cfg.FeeBps,
		ProtocolFeeShareBps: cfg.ProtocolFeeShareBps,
		ProtocolSweepMin:    sweepMin,
		VestingPeriod:       cfg.VestingPeriod,
		GenesisTime:         cfg.GenesisTime,
		Events:              events,
		Logger:              logger,
	})
	if err != nil {
		return err
	}

	runner := replay.NewRunner(replay.RunConfig{
		JournalPath:       cfg.Journal,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		StrictOps:         cfg.Strict,
		CheckpointEvery:   cfg.CheckpointEvery,
	}, venue, logger)

	logger.Info("replay start",
		zap.String("journal", cfg.Journal),
		zap.String("base", cfg.Base),
		zap.Uint64("fee_bps", cfg.FeeBps),
		zap.Uint64("protocol_fee_share_bps", cfg.ProtocolFeeShareBps),
		zap.Uint64("vesting_period", cfg.VestingPeriod),
		zap.String("out", cfg.Out),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("checkpoint", cfg.Checkpoint),
	)

	return runner.Run(ctx)
}
