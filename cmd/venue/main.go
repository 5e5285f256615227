package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "venue",
		Short:        "Bonding-curve trading venue",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay an operations journal into the venue",
		RunE:  runReplay,
	}

	replayCmd.Flags().String("journal", "", "operations journal JSONL path")
	replayCmd.Flags().String("base", "", "base asset address")
	replayCmd.Flags().String("treasury", "", "protocol treasury address")
	replayCmd.Flags().Uint64("fee-bps", 99, "swap fee in basis points")
	replayCmd.Flags().Uint64("protocol-fee-share-bps", 4000, "protocol share of swap fees in basis points")
	replayCmd.Flags().String("protocol-sweep-min", "", "minimum accrued protocol fee before sweeping to treasury")
	replayCmd.Flags().Uint64("vesting-period", 30*24*3600, "initial provider vesting period in seconds")
	replayCmd.Flags().Uint64("genesis-time", 0, "venue clock start (unix seconds)")
	replayCmd.Flags().String("out", "./data/events.jsonl", "output event log JSONL path")
	replayCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	replayCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	replayCmd.Flags().Uint64("checkpoint-every", 1, "checkpoint every N journal lines")
	replayCmd.Flags().Bool("strict", false, "abort on the first rejected operation")
	replayCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(replayCmd)

	aggregateCmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate the event log into window metrics",
		RunE:  runAggregate,
	}

	aggregateCmd.Flags().String("in", "", "input event log JSONL")
	aggregateCmd.Flags().String("window", "5m", "aggregation window (e.g. 1m, 5m, 1h)")
	aggregateCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	aggregateCmd.Flags().Int("batch-size", 1000, "batch size for DB writes")
	aggregateCmd.Flags().String("state-file", "", "optional local state file for progress tracking")
	aggregateCmd.Flags().Uint64("recompute-from", 0, "recompute from event sequence")
	aggregateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(aggregateCmd)

	root.AddCommand(newQuoteCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
