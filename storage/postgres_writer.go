package storage

import (
	"context"
	"fmt"
	"olx-scraper/config"
	"olx-scraper/models"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresWriter appends each run's ads to the olx_ads table. Rows are tagged
// with the run id; reappearing ads are stored again, as the CSV does.
type PostgresWriter struct {
	pool *pgxpool.Pool
}

func DSN(cfg *config.Config) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBSSLMode,
	)
}

func NewPostgresWriter(cfg *config.Config) (*PostgresWriter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect postgres: %w", err)
	}

	return &PostgresWriter{pool: pool}, nil
}

func (w *PostgresWriter) Close() {
	if w.pool != nil {
		w.pool.Close()
	}
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS olx_ads (
	id BIGSERIAL PRIMARY KEY,
	run_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	title TEXT NOT NULL,
	price TEXT NOT NULL,
	url TEXT NOT NULL,
	search_url TEXT NOT NULL,
	scraped_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_olx_ads_run ON olx_ads(run_id);
CREATE INDEX IF NOT EXISTS idx_olx_ads_url ON olx_ads(url);
`

const insertSQL = `
INSERT INTO olx_ads (run_id, position, title, price, url, search_url)
VALUES ($1, $2, $3, $4, $5, $6);
`

func (w *PostgresWriter) EnsureSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if _, err := w.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// WriteBatch stores ads in one round trip, keeping their order in position.
func (w *PostgresWriter) WriteBatch(runID, searchURL string, ads []models.Ad) error {
	if len(ads) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	batch := buildBatch(runID, searchURL, ads)

	results := w.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch insert failed at row %d: %w", i, err)
		}
	}
	return nil
}

func buildBatch(runID, searchURL string, ads []models.Ad) *pgx.Batch {
	batch := &pgx.Batch{}
	for i, ad := range ads {
		batch.Queue(
			insertSQL,
			runID,
			i+1,
			strings.TrimSpace(ad.Title),
			strings.TrimSpace(ad.Price),
			strings.TrimSpace(ad.URL),
			searchURL,
		)
	}
	return batch
}
