package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inedibleX/goat-trading/internal/model"
)

// Store provides Postgres persistence for aggregated pool activity.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertPools inserts or updates pool metadata.
func (s *Store) UpsertPools(ctx context.Context, pools []model.Pool) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pool := range pools {
		batch.Queue(`
			INSERT INTO pools (
				pool_address, token, base, bootstrap_base, first_seen_seq, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, now(), now())
			ON CONFLICT (pool_address)
			DO UPDATE SET
				token = EXCLUDED.token,
				base = EXCLUDED.base,
				bootstrap_base = EXCLUDED.bootstrap_base,
				first_seen_seq = LEAST(pools.first_seen_seq, EXCLUDED.first_seen_seq),
				updated_at = now()
		`,
			pool.Address,
			pool.Token,
			pool.Base,
			pool.BootstrapBase,
			int64(pool.FirstSeenSeq),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range pools {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertWindowStats inserts or updates windowed activity stats.
func (s *Store) UpsertWindowStats(ctx context.Context, stats []model.PoolWindowStats) error {
	if len(stats) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, w := range stats {
		batch.Queue(`
			INSERT INTO pool_window_stats (
				pool_address, window_size_seconds, window_start_ts, window_end_ts,
				swap_count, mint_count, burn_count, base_volume, token_volume,
				fee_total, last_reserve_base, last_reserve_token, last_seq,
				created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,now(),now())
			ON CONFLICT (pool_address, window_size_seconds, window_start_ts)
			DO UPDATE SET
				window_end_ts = EXCLUDED.window_end_ts,
				swap_count = EXCLUDED.swap_count,
				mint_count = EXCLUDED.mint_count,
				burn_count = EXCLUDED.burn_count,
				base_volume = EXCLUDED.base_volume,
				token_volume = EXCLUDED.token_volume,
				fee_total = EXCLUDED.fee_total,
				last_reserve_base = EXCLUDED.last_reserve_base,
				last_reserve_token = EXCLUDED.last_reserve_token,
				last_seq = EXCLUDED.last_seq,
				updated_at = now()
		`,
			w.PoolAddress,
			w.WindowSizeSecs,
			w.WindowStart,
			w.WindowEnd,
			int64(w.SwapCount),
			int64(w.MintCount),
			int64(w.BurnCount),
			w.BaseVolume,
			w.TokenVolume,
			w.FeeTotal,
			w.LastReserve0,
			w.LastReserve1,
			int64(w.LastSeq),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range stats {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadState returns last_processed_seq for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var seq uint64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_seq FROM aggregator_state WHERE name=$1`, name)
	if err := row.Scan(&seq); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return seq, true, nil
}

// SaveState upserts last_processed_seq for a name.
func (s *Store) SaveState(ctx context.Context, name string, seq uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO aggregator_state (name, last_processed_seq, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_seq = EXCLUDED.last_processed_seq, updated_at = now()
	`, name, seq)
	return err
}
