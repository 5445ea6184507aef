// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/keyai/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for practice history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS rounds (
			id INTEGER PRIMARY KEY,
			session_id TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			target TEXT NOT NULL,
			observations INTEGER NOT NULL,
			mistakes INTEGER NOT NULL,
			wpm REAL,
			accuracy REAL,
			exploration_rate REAL NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS round_trigrams (
			round_id INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			trigram TEXT NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			PRIMARY KEY (round_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_ended_at ON rounds(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_round_trigrams_trigram ON round_trigrams(trigram);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertRound stores a completed round and its observations.
func (s *Store) InsertRound(ctx context.Context, stats model.RoundStats, obs []model.Observation) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO rounds (session_id, started_at, ended_at, target, observations, mistakes, wpm, accuracy, exploration_rate, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stats.SessionID,
		stats.StartedAt.Format(time.RFC3339Nano),
		stats.EndedAt.Format(time.RFC3339Nano),
		stats.Target,
		stats.Observations,
		stats.Mistakes,
		nullFloat(stats.WPM),
		nullFloat(stats.Accuracy),
		stats.ExplorationRate,
		stats.DurationMs,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(obs) > 0 {
		var stmt *sql.Stmt
		stmt, err = tx.PrepareContext(ctx,
			`INSERT INTO round_trigrams (round_id, seq, trigram, elapsed_ms) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for i, o := range obs {
			if _, err = stmt.ExecContext(ctx, id, i, o.TrigramString(), o.ElapsedMs); err != nil {
				return 0, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListRounds returns round aggregates ordered oldest first.
func (s *Store) ListRounds(ctx context.Context, cfg model.StatsConfig) ([]model.RoundAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, ended_at, observations, mistakes, wpm, accuracy
		FROM rounds
		WHERE %s
		ORDER BY ended_at ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var rounds []model.RoundAggregate
	for rows.Next() {
		var agg model.RoundAggregate
		var endedAt string
		var wpm, acc sql.NullFloat64
		if err := rows.Scan(&agg.RoundID, &endedAt, &agg.Observations, &agg.Mistakes, &wpm, &acc); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		agg.EndedAt = parsed
		agg.WPM = floatPtr(wpm)
		agg.Accuracy = floatPtr(acc)
		rounds = append(rounds, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if cfg.Last > 0 && len(rounds) > cfg.Last {
		rounds = rounds[len(rounds)-cfg.Last:]
	}
	return rounds, nil
}

// Lifetime aggregates totals across all rounds.
func (s *Store) Lifetime(ctx context.Context) (model.Lifetime, error) {
	var life model.Lifetime
	var maxWPM, maxAcc sql.NullFloat64
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(LENGTH(target)), 0), COALESCE(SUM(mistakes), 0), MAX(wpm), MAX(accuracy)
		 FROM rounds`)
	if err := row.Scan(&life.Rounds, &life.Chars, &life.Mistakes, &maxWPM, &maxAcc); err != nil {
		return model.Lifetime{}, err
	}
	life.MaxWPM = maxWPM.Float64
	life.MaxAccuracy = maxAcc.Float64
	return life, nil
}

// TrigramLatencies aggregates observed latencies over the most recent rounds.
// A window of zero or less covers every round.
func (s *Store) TrigramLatencies(ctx context.Context, window int) ([]model.TrigramLatency, error) {
	limit := window
	if limit <= 0 {
		limit = -1
	}
	query := `WITH recent_rounds AS (
		SELECT id FROM rounds
		ORDER BY ended_at DESC, id DESC
		LIMIT ?
	)
	SELECT rt.trigram, SUM(rt.elapsed_ms) AS latency_sum_ms, COUNT(*) AS latency_count
	FROM round_trigrams rt
	JOIN recent_rounds r ON r.id = rt.round_id
	GROUP BY rt.trigram
	ORDER BY rt.trigram`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.TrigramLatency
	for rows.Next() {
		var agg model.TrigramLatency
		if err := rows.Scan(&agg.Trigram, &agg.LatencySumMs, &agg.LatencyCount); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
