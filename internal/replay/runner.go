package replay

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// RunConfig holds runtime settings for a replay.
type RunConfig struct {
	JournalPath       string
	CheckpointPath    string
	CheckpointEnabled bool
	StrictOps         bool
	CheckpointEvery   uint64
}

// Runner drives a venue from a journal file.
type Runner struct {
	cfg        RunConfig
	venue      *Venue
	logger     *zap.Logger
	checkpoint *CheckpointStore
}

func NewRunner(cfg RunConfig, venue *Venue, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CheckpointEvery == 0 {
		cfg.CheckpointEvery = 1
	}
	return &Runner{
		cfg:        cfg,
		venue:      venue,
		logger:     logger,
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
	}
}

// Run applies the journal in order. A malformed or rejected operation is
// logged and skipped unless StrictOps is set, in which case it aborts the
// run. Lines at or below the checkpoint are skipped on resume.
func (r *Runner) Run(ctx context.Context) error {
	if r.venue == nil {
		return fmt.Errorf("venue is nil")
	}
	if r.cfg.JournalPath == "" {
		return fmt.Errorf("journal path is required")
	}

	var resumeAfter uint64
	if r.checkpoint != nil {
		cp, ok, err := r.checkpoint.Load()
		if err != nil {
			return err
		}
		if ok {
			resumeAfter = cp.LastProcessedLine
			r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", resumeAfter))
		}
	}

	file, err := os.Open(r.cfg.JournalPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var line uint64
	var applied, skipped, failed uint64
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if line <= resumeAfter {
			skipped++
			continue
		}

		var op Op
		if err := json.Unmarshal([]byte(text), &op); err != nil {
			if r.cfg.StrictOps {
				return fmt.Errorf("parse journal line %d: %w", line, err)
			}
			r.logger.Warn("malformed journal line", zap.Uint64("line", line), zap.Error(err))
			failed++
			continue
		}

		if err := r.venue.Apply(op); err != nil {
			if r.cfg.StrictOps {
				return fmt.Errorf("apply journal line %d (%s): %w", line, op.Op, err)
			}
			r.logger.Warn("operation rejected", zap.Uint64("line", line), zap.String("op", op.Op), zap.Error(err))
			failed++
		} else {
			applied++
		}

		if r.checkpoint != nil && line%r.cfg.CheckpointEvery == 0 {
			if err := r.checkpoint.Save(line); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read journal: %w", err)
	}

	if r.checkpoint != nil && line > resumeAfter {
		if err := r.checkpoint.Save(line); err != nil {
			return err
		}
	}

	r.logger.Info("replay complete",
		zap.Uint64("lines", line),
		zap.Uint64("applied", applied),
		zap.Uint64("skipped", skipped),
		zap.Uint64("rejected", failed))
	return nil
}
