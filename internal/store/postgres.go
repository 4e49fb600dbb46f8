package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeSquared-Agency/ValueCharts/internal/model"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Migrate creates the chart table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS value_charts (
			chart_id   UUID PRIMARY KEY,
			name       TEXT NOT NULL,
			creator    TEXT NOT NULL DEFAULT '',
			document   JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_value_charts_name ON value_charts (name);
		CREATE INDEX IF NOT EXISTS idx_value_charts_creator ON value_charts (creator)`)
	if err != nil {
		return fmt.Errorf("migrate value_charts: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateChart(ctx context.Context, c *model.Chart) error {
	c.ID = newChartID()
	doc, err := encodeChart(c)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO value_charts (chart_id, name, creator, document)
		VALUES ($1, $2, $3, $4)`,
		c.ID, c.Name, c.Creator, doc,
	)
	if err != nil {
		return fmt.Errorf("insert chart: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetChart(ctx context.Context, id string) (*model.Chart, error) {
	if !validID(id) {
		return nil, nil
	}
	var doc []byte
	err := s.pool.QueryRow(ctx, `SELECT document FROM value_charts WHERE chart_id = $1`, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeChart(id, doc)
}

func (s *PostgresStore) GetChartByName(ctx context.Context, name string) (*model.Chart, error) {
	var id string
	var doc []byte
	err := s.pool.QueryRow(ctx, `
		SELECT chart_id::text, document FROM value_charts
		WHERE name = $1 ORDER BY created_at LIMIT 1`, name,
	).Scan(&id, &doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeChart(id, doc)
}

func (s *PostgresStore) ListCharts(ctx context.Context, creator string) ([]*ChartSummary, error) {
	query := `SELECT chart_id::text, document, updated_at FROM value_charts`
	args := []interface{}{}
	if creator != "" {
		query += ` WHERE creator = $1`
		args = append(args, creator)
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ChartSummary
	for rows.Next() {
		var id string
		var doc []byte
		var updatedAt time.Time
		if err := rows.Scan(&id, &doc, &updatedAt); err != nil {
			return nil, err
		}
		c, err := decodeChart(id, doc)
		if err != nil {
			return nil, err
		}
		out = append(out, summarize(c, updatedAt))
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateChart(ctx context.Context, c *model.Chart) error {
	if !validID(c.ID) {
		return ErrNoChart
	}
	doc, err := encodeChart(c)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE value_charts SET name = $2, creator = $3, document = $4, updated_at = now()
		WHERE chart_id = $1`,
		c.ID, c.Name, c.Creator, doc,
	)
	if err != nil {
		return fmt.Errorf("update chart: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoChart
	}
	return nil
}

func (s *PostgresStore) DeleteChart(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNoChart
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM value_charts WHERE chart_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete chart: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoChart
	}
	return nil
}

func (s *PostgresStore) NameAvailable(ctx context.Context, name string) (bool, error) {
	var taken bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM value_charts WHERE name = $1)`, name).Scan(&taken)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

func (s *PostgresStore) UpsertUser(ctx context.Context, chartID string, u *model.User) (*model.Chart, error) {
	return s.mutate(ctx, chartID, upsertUser(u))
}

func (s *PostgresStore) DeleteUser(ctx context.Context, chartID, username string) (*model.Chart, error) {
	return s.mutate(ctx, chartID, deleteUser(username))
}

// mutate locks the chart row, applies fn to the decoded document and writes
// it back in one transaction.
func (s *PostgresStore) mutate(ctx context.Context, chartID string, fn userMutation) (*model.Chart, error) {
	if !validID(chartID) {
		return nil, nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var doc []byte
	err = tx.QueryRow(ctx, `SELECT document FROM value_charts WHERE chart_id = $1 FOR UPDATE`, chartID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c, err := decodeChart(chartID, doc)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	doc, err = encodeChart(c)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `UPDATE value_charts SET document = $2, updated_at = now() WHERE chart_id = $1`, chartID, doc); err != nil {
		return nil, fmt.Errorf("update chart users: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return c, nil
}
