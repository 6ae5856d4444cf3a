package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lvrfee/internal/model"
)

// Store provides Postgres persistence for fee decisions.
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

// InsertDecisions appends fee decision records. Replays are idempotent
// per (pool, period, tick pair), so conflicts keep the latest values.
func (s *Store) InsertDecisions(ctx context.Context, decisions []model.FeeDecision) error {
	if len(decisions) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, d := range decisions {
		batch.Queue(`
			INSERT INTO fee_decisions (
				pool_id, strategy, period, tick_before, tick_after,
				charged_fee_ppm, realized_fee_ppm, carry_ppm, pending_fee_ppm,
				sum_sq, trade_ts, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now())
			ON CONFLICT (pool_id, period, tick_before, tick_after)
			DO UPDATE SET
				strategy = EXCLUDED.strategy,
				charged_fee_ppm = EXCLUDED.charged_fee_ppm,
				realized_fee_ppm = EXCLUDED.realized_fee_ppm,
				carry_ppm = EXCLUDED.carry_ppm,
				pending_fee_ppm = EXCLUDED.pending_fee_ppm,
				sum_sq = EXCLUDED.sum_sq,
				trade_ts = EXCLUDED.trade_ts
		`,
			d.PoolID,
			d.Strategy,
			int64(d.Period),
			d.TickBefore,
			d.TickAfter,
			int64(d.ChargedFeePpm),
			int64(d.RealizedFeePpm),
			d.CarryPpm,
			int64(d.PendingFeePpm),
			d.SumSq,
			int64(d.Timestamp),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range decisions {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
