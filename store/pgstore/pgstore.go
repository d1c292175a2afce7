// Package pgstore is a PostgreSQL store.Store built on pgxpool.
//
// Runs and buckets are stored as JSONB payloads next to the columns used
// for lookups. MergeBucket locks the bucket row for the duration of the
// update.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonwraymond/checkops/aggregate"
	"github.com/jonwraymond/checkops/probe"
	"github.com/jonwraymond/checkops/store"
)

// Store persists to PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a pool for databaseURL and pings it.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgstore: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close closes the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Migrate creates the tables and indexes if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS checkops_runs (
			id               TEXT PRIMARY KEY,
			configuration_id TEXT NOT NULL,
			system_id        TEXT NOT NULL,
			strategy_id      TEXT NOT NULL,
			status           TEXT NOT NULL,
			ts               TIMESTAMPTZ NOT NULL,
			payload          JSONB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_checkops_runs_pair_ts
			ON checkops_runs(configuration_id, system_id, ts);

		CREATE TABLE IF NOT EXISTS checkops_buckets (
			configuration_id TEXT NOT NULL,
			system_id        TEXT NOT NULL,
			size             TEXT NOT NULL,
			start            TIMESTAMPTZ NOT NULL,
			payload          JSONB NOT NULL,
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (configuration_id, system_id, size, start)
		);
	`)
	if err != nil {
		return fmt.Errorf("pgstore: migrate: %w", err)
	}
	return nil
}

func (s *Store) SaveRun(ctx context.Context, run probe.Run) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("pgstore: encode run: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO checkops_runs (id, configuration_id, system_id, strategy_id, status, ts, payload)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO NOTHING`,
		run.ID, run.ConfigurationID, run.SystemID, run.StrategyID, run.Status.String(), run.Timestamp.UTC(), payload,
	)
	if err != nil {
		return fmt.Errorf("pgstore: save run: %w", err)
	}
	return nil
}

func (s *Store) LoadRecentRuns(ctx context.Context, pair aggregate.Pair, limit int) ([]probe.Run, error) {
	query := `SELECT payload FROM checkops_runs
		WHERE configuration_id = $1 AND system_id = $2
		ORDER BY ts DESC, id DESC`
	args := []any{pair.ConfigurationID, pair.SystemID}
	if limit > 0 {
		query += " LIMIT $3"
		args = append(args, limit)
	}
	return s.queryRuns(ctx, query, args...)
}

func (s *Store) LoadRunsBefore(ctx context.Context, pair aggregate.Pair, before time.Time) ([]probe.Run, error) {
	return s.queryRuns(ctx,
		`SELECT payload FROM checkops_runs
		 WHERE configuration_id = $1 AND system_id = $2 AND ts < $3
		 ORDER BY ts, id`,
		pair.ConfigurationID, pair.SystemID, before.UTC())
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]probe.Run, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgstore: load runs: %w", err)
	}
	runs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (probe.Run, error) {
		var payload []byte
		if err := row.Scan(&payload); err != nil {
			return probe.Run{}, err
		}
		var run probe.Run
		err := json.Unmarshal(payload, &run)
		return run, err
	})
	if err != nil {
		return nil, fmt.Errorf("pgstore: load runs: %w", err)
	}
	return runs, nil
}

func (s *Store) DeleteRunsBefore(ctx context.Context, pair aggregate.Pair, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM checkops_runs WHERE configuration_id = $1 AND system_id = $2 AND ts < $3`,
		pair.ConfigurationID, pair.SystemID, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("pgstore: delete runs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) Pairs(ctx context.Context) ([]aggregate.Pair, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT configuration_id, system_id FROM checkops_runs
		UNION
		SELECT configuration_id, system_id FROM checkops_buckets
		ORDER BY 1, 2`)
	if err != nil {
		return nil, fmt.Errorf("pgstore: pairs: %w", err)
	}
	pairs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (aggregate.Pair, error) {
		var p aggregate.Pair
		err := row.Scan(&p.ConfigurationID, &p.SystemID)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("pgstore: pairs: %w", err)
	}
	return pairs, nil
}

func (s *Store) GetBucket(ctx context.Context, key aggregate.Key) (aggregate.Bucket, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM checkops_buckets
		 WHERE configuration_id = $1 AND system_id = $2 AND size = $3 AND start = $4`,
		key.ConfigurationID, key.SystemID, string(key.Size), key.Start.UTC(),
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return aggregate.Bucket{}, store.ErrNotFound
	}
	if err != nil {
		return aggregate.Bucket{}, fmt.Errorf("pgstore: get bucket: %w", err)
	}
	return decodeBucket(payload)
}

func (s *Store) UpsertBucket(ctx context.Context, b aggregate.Bucket) error {
	if err := upsert(ctx, s.pool, b); err != nil {
		return fmt.Errorf("pgstore: upsert bucket: %w", err)
	}
	return nil
}

// MergeBucket inserts an empty row when none exists, then locks it with
// SELECT ... FOR UPDATE so concurrent merges serialize on the row.
func (s *Store) MergeBucket(ctx context.Context, key aggregate.Key, fn store.MergeFunc) (aggregate.Bucket, error) {
	var out aggregate.Bucket
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		empty, err := json.Marshal(aggregate.NewBucket(key))
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO checkops_buckets (configuration_id, system_id, size, start, payload)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT DO NOTHING`,
			key.ConfigurationID, key.SystemID, string(key.Size), key.Start.UTC(), empty)
		if err != nil {
			return err
		}

		var payload []byte
		err = tx.QueryRow(ctx,
			`SELECT payload FROM checkops_buckets
			 WHERE configuration_id = $1 AND system_id = $2 AND size = $3 AND start = $4
			 FOR UPDATE`,
			key.ConfigurationID, key.SystemID, string(key.Size), key.Start.UTC(),
		).Scan(&payload)
		if err != nil {
			return err
		}
		b, err := decodeBucket(payload)
		if err != nil {
			return err
		}
		if err := fn(&b); err != nil {
			return err
		}
		if err := upsert(ctx, tx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return aggregate.Bucket{}, fmt.Errorf("pgstore: merge bucket %s: %w", key, err)
	}
	return out, nil
}

func (s *Store) LoadBuckets(ctx context.Context, pair aggregate.Pair, size aggregate.Size, from, to time.Time) ([]aggregate.Bucket, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT payload FROM checkops_buckets
		 WHERE configuration_id = $1 AND system_id = $2 AND size = $3 AND start >= $4 AND start < $5
		 ORDER BY start`,
		pair.ConfigurationID, pair.SystemID, string(size), from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("pgstore: load buckets: %w", err)
	}
	buckets, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (aggregate.Bucket, error) {
		var payload []byte
		if err := row.Scan(&payload); err != nil {
			return aggregate.Bucket{}, err
		}
		return decodeBucket(payload)
	})
	if err != nil {
		return nil, fmt.Errorf("pgstore: load buckets: %w", err)
	}
	return buckets, nil
}

func (s *Store) DeleteBucketsBefore(ctx context.Context, pair aggregate.Pair, size aggregate.Size, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM checkops_buckets
		 WHERE configuration_id = $1 AND system_id = $2 AND size = $3 AND start < $4`,
		pair.ConfigurationID, pair.SystemID, string(size), before.UTC())
	if err != nil {
		return 0, fmt.Errorf("pgstore: delete buckets: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func upsert(ctx context.Context, db execer, b aggregate.Bucket) error {
	payload, err := json.Marshal(b)
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx,
		`INSERT INTO checkops_buckets (configuration_id, system_id, size, start, payload, updated_at)
		 VALUES ($1, $2, $3, $4, $5, now())
		 ON CONFLICT (configuration_id, system_id, size, start)
		 DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
		b.Key.ConfigurationID, b.Key.SystemID, string(b.Key.Size), b.Key.Start.UTC(), payload)
	return err
}

func decodeBucket(payload []byte) (aggregate.Bucket, error) {
	var b aggregate.Bucket
	if err := json.Unmarshal(payload, &b); err != nil {
		return aggregate.Bucket{}, fmt.Errorf("decode bucket: %w", err)
	}
	return b, nil
}

var _ store.Store = (*Store)(nil)
