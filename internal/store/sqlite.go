package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/MikeSquared-Agency/ValueCharts/internal/model"
)

// SQLiteStore keeps chart documents in a single SQLite file.
type SQLiteStore struct {
	DBPath string
	db     *sql.DB
}

// OpenSQLite opens or creates the chart database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve chart db path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure chart db dir: %w", err)
	}

	db, err := sql.Open("sqlite", absPath)
	if err != nil {
		return nil, fmt.Errorf("open chart db: %w", err)
	}
	// One writer; transactions in mutate rely on it.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{DBPath: absPath, db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) ensureSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS value_charts (
	chart_id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	creator TEXT NOT NULL DEFAULT '',
	document TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_value_charts_name ON value_charts(name);
CREATE INDEX IF NOT EXISTS idx_value_charts_creator ON value_charts(creator);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create chart schema: %w", err)
	}
	return nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func (s *SQLiteStore) CreateChart(ctx context.Context, c *model.Chart) error {
	c.ID = newChartID()
	doc, err := encodeChart(c)
	if err != nil {
		return err
	}
	ts := now()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO value_charts (chart_id, name, creator, document, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		c.ID, c.Name, c.Creator, string(doc), ts, ts,
	)
	if err != nil {
		return fmt.Errorf("insert chart: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetChart(ctx context.Context, id string) (*model.Chart, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, "SELECT document FROM value_charts WHERE chart_id = ?", id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeChart(id, []byte(doc))
}

func (s *SQLiteStore) GetChartByName(ctx context.Context, name string) (*model.Chart, error) {
	var id, doc string
	err := s.db.QueryRowContext(ctx,
		"SELECT chart_id, document FROM value_charts WHERE name = ? ORDER BY created_at LIMIT 1", name,
	).Scan(&id, &doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeChart(id, []byte(doc))
}

func (s *SQLiteStore) ListCharts(ctx context.Context, creator string) ([]*ChartSummary, error) {
	query := "SELECT chart_id, document, updated_at FROM value_charts"
	var args []any
	if creator != "" {
		query += " WHERE creator = ?"
		args = append(args, creator)
	}
	query += " ORDER BY updated_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ChartSummary
	for rows.Next() {
		var id, doc, updated string
		if err := rows.Scan(&id, &doc, &updated); err != nil {
			return nil, err
		}
		c, err := decodeChart(id, []byte(doc))
		if err != nil {
			return nil, err
		}
		updatedAt, err := time.Parse(time.RFC3339Nano, updated)
		if err != nil {
			return nil, fmt.Errorf("parse updated_at for %s: %w", id, err)
		}
		out = append(out, summarize(c, updatedAt))
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateChart(ctx context.Context, c *model.Chart) error {
	doc, err := encodeChart(c)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE value_charts SET name = ?, creator = ?, document = ?, updated_at = ? WHERE chart_id = ?",
		c.Name, c.Creator, string(doc), now(), c.ID,
	)
	if err != nil {
		return fmt.Errorf("update chart: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) DeleteChart(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM value_charts WHERE chart_id = ?", id)
	if err != nil {
		return fmt.Errorf("delete chart: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoChart
	}
	return nil
}

func (s *SQLiteStore) NameAvailable(ctx context.Context, name string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM value_charts WHERE name = ?", name).Scan(&n); err != nil {
		return false, err
	}
	return n == 0, nil
}

func (s *SQLiteStore) UpsertUser(ctx context.Context, chartID string, u *model.User) (*model.Chart, error) {
	return s.mutate(ctx, chartID, upsertUser(u))
}

func (s *SQLiteStore) DeleteUser(ctx context.Context, chartID, username string) (*model.Chart, error) {
	return s.mutate(ctx, chartID, deleteUser(username))
}

func (s *SQLiteStore) mutate(ctx context.Context, chartID string, fn userMutation) (*model.Chart, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var doc string
	err = tx.QueryRowContext(ctx, "SELECT document FROM value_charts WHERE chart_id = ?", chartID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c, err := decodeChart(chartID, []byte(doc))
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	data, err := encodeChart(c)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE value_charts SET document = ?, updated_at = ? WHERE chart_id = ?",
		string(data), now(), chartID,
	); err != nil {
		return nil, fmt.Errorf("update chart users: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return c, nil
}
