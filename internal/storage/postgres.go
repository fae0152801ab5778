package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"itemservice/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS items (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT '',
	email       TEXT NOT NULL DEFAULT ''
)`

// PostgresStore is an ItemStore backed by a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database at connString and verifies the
// connection with a ping.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema creates the items table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create items table: %w", err)
	}
	return nil
}

// Close releases every pooled connection.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) List(ctx context.Context) ([]models.Item, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, description, status, email FROM items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.Item])
	if err != nil {
		return nil, fmt.Errorf("failed to scan items: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list item ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to scan item ids: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (models.Item, error) {
	var item models.Item
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, description, status, email FROM items WHERE id = $1`, id,
	).Scan(&item.ID, &item.Name, &item.Description, &item.Status, &item.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Item{}, ErrNotFound
	}
	if err != nil {
		return models.Item{}, fmt.Errorf("failed to get item %d: %w", id, err)
	}
	return item, nil
}

func (s *PostgresStore) Save(ctx context.Context, item models.Item) (models.Item, error) {
	var err error
	if item.ID == 0 {
		err = s.pool.QueryRow(ctx,
			`INSERT INTO items (name, description, status, email) VALUES ($1, $2, $3, $4) RETURNING id`,
			item.Name, item.Description, item.Status, item.Email,
		).Scan(&item.ID)
	} else {
		_, err = s.pool.Exec(ctx,
			`INSERT INTO items (id, name, description, status, email) VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description,
			 status = EXCLUDED.status, email = EXCLUDED.email`,
			item.ID, item.Name, item.Description, item.Status, item.Email,
		)
	}
	if err != nil {
		return models.Item{}, fmt.Errorf("failed to save item: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM items WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete item %d: %w", id, err)
	}
	return nil
}
