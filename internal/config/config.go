package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ReplayConfig holds configuration values loaded from flags, env, or config file.
type ReplayConfig struct {
	Journal             string
	Base                string
	Treasury            string
	FeeBps              uint64
	ProtocolFeeShareBps uint64
	ProtocolSweepMin    string
	VestingPeriod       uint64
	GenesisTime         uint64
	Out                 string
	Checkpoint          string
	CheckpointEnabled   bool
	CheckpointEvery     uint64
	Strict              bool
	LogLevel            string
}

// LoadReplay merges config file, environment variables, and flags into ReplayConfig.
func LoadReplay(cfgFile string, flags *pflag.FlagSet) (ReplayConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return ReplayConfig{}, err
	}

	v.SetDefault("fee-bps", uint64(99))
	v.SetDefault("protocol-fee-share-bps", uint64(4000))
	v.SetDefault("vesting-period", uint64(30*24*3600))
	v.SetDefault("out", "./data/events.jsonl")
	v.SetDefault("checkpoint", "./data/checkpoint.json")
	v.SetDefault("checkpoint-enabled", true)
	v.SetDefault("checkpoint-every", uint64(1))
	v.SetDefault("log-level", "info")

	cfg := ReplayConfig{
		Journal:             v.GetString("journal"),
		Base:                v.GetString("base"),
		Treasury:            v.GetString("treasury"),
		FeeBps:              v.GetUint64("fee-bps"),
		ProtocolFeeShareBps: v.GetUint64("protocol-fee-share-bps"),
		ProtocolSweepMin:    v.GetString("protocol-sweep-min"),
		VestingPeriod:       v.GetUint64("vesting-period"),
		GenesisTime:         v.GetUint64("genesis-time"),
		Out:                 v.GetString("out"),
		Checkpoint:          v.GetString("checkpoint"),
		CheckpointEnabled:   v.GetBool("checkpoint-enabled"),
		CheckpointEvery:     v.GetUint64("checkpoint-every"),
		Strict:              v.GetBool("strict"),
		LogLevel:            v.GetString("log-level"),
	}

	return cfg, nil
}

// AggregateConfig holds configuration for aggregation.
type AggregateConfig struct {
	Input         string
	Window        string
	PGDSN         string
	BatchSize     int
	StateFile     string
	RecomputeFrom uint64
	LogLevel      string
}

// LoadAggregate merges config file, environment variables, and flags into AggregateConfig.
func LoadAggregate(cfgFile string, flags *pflag.FlagSet) (AggregateConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return AggregateConfig{}, err
	}

	v.SetDefault("batch-size", 1000)
	v.SetDefault("window", "5m")
	v.SetDefault("log-level", "info")

	cfg := AggregateConfig{
		Input:         v.GetString("in"),
		Window:        v.GetString("window"),
		PGDSN:         v.GetString("pg-dsn"),
		BatchSize:     v.GetInt("batch-size"),
		StateFile:     v.GetString("state-file"),
		RecomputeFrom: v.GetUint64("recompute-from"),
		LogLevel:      v.GetString("log-level"),
	}

	return cfg, nil
}

func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("VENUE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}
