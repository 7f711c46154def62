// Package postgres stores the sent-alert ledger in a Postgres table. Rows are
// insert-only, so several instances may share one table without losing acks.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/matchalert/internal/domain"
	"github.com/hamed0406/matchalert/internal/ledger"
)

var _ ledger.Store = (*Store)(nil)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sent_alerts (
  match_id TEXT        NOT NULL,
  numeric  BOOLEAN     NOT NULL DEFAULT false,
  sent_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  PRIMARY KEY (match_id, numeric)
);
`

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

// New connects, pings, and makes sure the sent_alerts table exists.
func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) Load(ctx context.Context) (ledger.Set, error) {
	rows, err := s.pool.Query(ctx, `SELECT match_id, numeric FROM sent_alerts`)
	if err != nil {
		return nil, fmt.Errorf("list sent alerts: %w", err)
	}
	defer rows.Close()

	out := ledger.NewSet()
	for rows.Next() {
		var (
			id      string
			numeric bool
		)
		if err := rows.Scan(&id, &numeric); err != nil {
			return nil, fmt.Errorf("scan sent alert: %w", err)
		}
		out.Add(domain.NewMatchID(id, numeric))
	}
	return out, rows.Err()
}

// Save inserts every id in set. Existing rows keep their original sent_at and
// ids absent from set are left alone, matching the never-remove rule.
func (s *Store) Save(ctx context.Context, set ledger.Set) error {
	if set.Len() == 0 {
		return nil
	}
	ids := make([]string, 0, set.Len())
	numeric := make([]bool, 0, set.Len())
	for _, id := range set.IDs() {
		ids = append(ids, id.String())
		numeric = append(numeric, id.IsNumeric())
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO sent_alerts (match_id, numeric)
		 SELECT * FROM unnest($1::text[], $2::boolean[])
		 ON CONFLICT (match_id, numeric) DO NOTHING`,
		ids, numeric,
	)
	if err != nil {
		return fmt.Errorf("insert sent alerts: %w", err)
	}
	if s.log != nil && tag.RowsAffected() > 0 {
		s.log.Debug("ledger_rows_inserted", zap.Int64("rows", tag.RowsAffected()))
	}
	return nil
}
