// Package storage implements the tenant store on PostgreSQL via pgx.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Wrecage/KamicoContactRelay/internal/tenant"
)

// NewPostgres creates a new connection pool to PostgreSQL and verifies it
// with a ping.
func NewPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return pool, nil
}

// PostgresStore implements tenant.Store against the tenants and email_logs
// tables (see migrations/).
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// TenantByAPIKey performs the equality lookup of the request pipeline.
func (s *PostgresStore) TenantByAPIKey(ctx context.Context, apiKey string) (tenant.Config, error) {
	const q = `
		SELECT id, name, api_key, sender_email, sender_password,
		       recipient_email, allowed_origins, smtp_server, smtp_port
		FROM tenants
		WHERE api_key = $1`

	var cfg tenant.Config
	err := s.pool.QueryRow(ctx, q, apiKey).Scan(
		&cfg.ID,
		&cfg.Name,
		&cfg.APIKey,
		&cfg.SenderEmail,
		&cfg.SenderPassword,
		&cfg.RecipientEmail,
		&cfg.AllowedOrigins,
		&cfg.SMTPServer,
		&cfg.SMTPPort,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return tenant.Config{}, tenant.ErrNotFound
		}
		return tenant.Config{}, fmt.Errorf("tenant lookup: %w", err)
	}
	return cfg, nil
}

// InsertDeliveryLog appends a delivery record. sent_at defaults to now()
// in the schema.
func (s *PostgresStore) InsertDeliveryLog(ctx context.Context, rec tenant.DeliveryLog) error {
	const q = `
		INSERT INTO email_logs (tenant_id, subject, sender_email)
		VALUES ($1, $2, $3)`

	if _, err := s.pool.Exec(ctx, q, rec.TenantID, rec.Subject, rec.SenderEmail); err != nil {
		return fmt.Errorf("insert delivery log: %w", err)
	}
	return nil
}

// Ping reports store reachability for the health endpoint.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
