package aggregate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/inedibleX/goat-trading/internal/model"
	"github.com/inedibleX/goat-trading/internal/storage/postgres"
)

// Config controls aggregation behavior.
type Config struct {
	WindowSeconds uint64
	BatchSize     int
	RecomputeFrom uint64
	StateStore    StateStore
}

// Aggregator folds the venue event log into per-pool window metrics.
type Aggregator struct {
	cfg          Config
	store        *postgres.Store
	logger       *zap.Logger
	accumulators map[string]*Accumulator
	poolSeen     map[string]struct{}
}

func NewAggregator(cfg Config, store *postgres.Store, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		accumulators: make(map[string]*Accumulator),
		poolSeen:     make(map[string]struct{}),
	}
}

// Run executes aggregation over an event log JSONL file.
func (a *Aggregator) Run(ctx context.Context, inputPath string) error {
	if a.store == nil {
		return fmt.Errorf("store is nil")
	}
	if a.cfg.WindowSeconds == 0 {
		return fmt.Errorf("window seconds must be > 0")
	}
	if a.cfg.BatchSize <= 0 {
		a.cfg.BatchSize = 1000
	}

	startSeq, err := a.loadStartSeq(ctx)
	if err != nil {
		return err
	}

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	batch := make([]model.PoolWindowStats, 0, a.cfg.BatchSize)
	pools := make([]model.Pool, 0, 64)
	maxSeq := startSeq
	var total, aggregated, skipped, failed int

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		total++

		var record model.EventRecord
		if err := json.Unmarshal(line, &record); err != nil {
			failed++
			a.logger.Warn("decode event record", zap.Error(err))
			continue
		}

		if record.Seq <= startSeq {
			skipped++
			continue
		}
		if record.Seq > maxSeq {
			maxSeq = record.Seq
		}

		if record.EventName == model.EventPoolCreated {
			if _, dup := a.poolSeen[record.Pool]; dup {
				continue
			}
			pool, err := a.poolFromCreated(record)
			if err != nil {
				failed++
				a.logger.Warn("decode pool_created", zap.Error(err), zap.String("pool", record.Pool))
				continue
			}
			pools = append(pools, pool)
			continue
		}

		windowStart := windowStartFor(record.Timestamp, a.cfg.WindowSeconds)
		windowEnd := windowStart + a.cfg.WindowSeconds

		acc := a.accumulators[record.Pool]
		if acc == nil {
			acc = NewAccumulator(record, windowStart, windowEnd)
			a.accumulators[record.Pool] = acc
		} else if acc.WindowStart != windowStart {
			batch = append(batch, acc.Stats(a.cfg.WindowSeconds))
			aggregated++
			acc = NewAccumulator(record, windowStart, windowEnd)
			a.accumulators[record.Pool] = acc
		}

		if err := acc.AddEvent(record); err != nil {
			failed++
			a.logger.Warn("aggregate event", zap.Error(err), zap.String("pool", record.Pool), zap.String("event", record.EventName))
			continue
		}

		if len(batch) >= a.cfg.BatchSize {
			if err := a.flushBatches(ctx, batch, pools); err != nil {
				return err
			}
			batch = batch[:0]
			pools = pools[:0]

			if err := a.saveState(ctx, maxSeq); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}

	for _, acc := range a.accumulators {
		batch = append(batch, acc.Stats(a.cfg.WindowSeconds))
		aggregated++
	}
	a.accumulators = make(map[string]*Accumulator)

	if len(batch) > 0 || len(pools) > 0 {
		if err := a.flushBatches(ctx, batch, pools); err != nil {
			return err
		}
	}
	if err := a.saveState(ctx, maxSeq); err != nil {
		return err
	}

	a.logger.Info("aggregate complete",
		zap.Int("total", total),
		zap.Int("windows", aggregated),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)
	return nil
}

func (a *Aggregator) poolFromCreated(record model.EventRecord) (model.Pool, error) {
	var created model.PoolCreatedEventData
	if err := json.Unmarshal(record.Decoded, &created); err != nil {
		return model.Pool{}, err
	}
	a.poolSeen[record.Pool] = struct{}{}
	return model.Pool{
		Address:       record.Pool,
		Token:         created.Token,
		Base:          created.Base,
		BootstrapBase: created.BootstrapBase,
		FirstSeenSeq:  record.Seq,
	}, nil
}

func (a *Aggregator) loadStartSeq(ctx context.Context) (uint64, error) {
	if a.cfg.RecomputeFrom > 0 {
		return a.cfg.RecomputeFrom - 1, nil
	}
	if a.cfg.StateStore == nil {
		return 0, nil
	}
	last, ok, err := a.cfg.StateStore.Load(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return last, nil
}

func (a *Aggregator) saveState(ctx context.Context, maxSeq uint64) error {
	if a.cfg.StateStore == nil {
		return nil
	}

	// Open windows may still receive events, so the resume point stays
	// below the earliest event in any open accumulator.
	safeSeq := maxSeq
	for _, acc := range a.accumulators {
		if acc.FirstSeq > 0 && acc.FirstSeq-1 < safeSeq {
			safeSeq = acc.FirstSeq - 1
		}
	}
	return a.cfg.StateStore.Save(ctx, safeSeq)
}

func (a *Aggregator) flushBatches(ctx context.Context, batch []model.PoolWindowStats, pools []model.Pool) error {
	if len(pools) > 0 {
		if err := a.store.UpsertPools(ctx, pools); err != nil {
			return err
		}
	}
	if len(batch) > 0 {
		if err := a.store.UpsertWindowStats(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}
