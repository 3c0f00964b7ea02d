package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"alumni-engine/internal/domain"
)

//go:embed schema/postgres.sql
var schemaFS embed.FS

var pgUpsert = upsertSQL(func(i int) string { return fmt.Sprintf("$%d", i) }, "::jsonb")

const pgSelect = `
SELECT external_id, COALESCE(name, ''), COALESCE(first_name, ''), COALESCE(last_name, ''),
  COALESCE(headline, ''), COALESCE(about, ''), COALESCE(location, ''), COALESCE(city, ''),
  COALESCE(country_code, ''), COALESCE(email, ''), COALESCE(avatar_url, ''), COALESCE(profile_url, ''),
  COALESCE(followers, 0), COALESCE(connections, 0), COALESCE(current_company::text, ''),
  COALESCE(education::text, ''), COALESCE(experience::text, ''), COALESCE(skills::text, ''),
  COALESCE(batch, ''), COALESCE(branch, ''), COALESCE(graduation_year, ''), COALESCE(scraped_at, ''),
  data_quality_score, updated_at
FROM profiles
WHERE external_id = $1
LIMIT 1
`

// Postgres is the ProfileStore for shared deployments.
type Postgres struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, &StoreError{Op: "open", Err: errors.New("postgres dsn is empty")}
	}
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, &StoreError{Op: "open", Err: fmt.Errorf("parse dsn: %w", err)}
	}
	config.MaxConns = 10
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, &StoreError{Op: "open", Err: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &StoreError{Op: "ping", Err: err}
	}

	schema, err := schemaFS.ReadFile("schema/postgres.sql")
	if err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		pool.Close()
		return nil, &StoreError{Op: "migrate", Err: err}
	}

	return &Postgres{pool: pool, now: time.Now}, nil
}

func (s *Postgres) Upsert(ctx context.Context, p domain.CanonicalProfile) error {
	p.ExternalID = strings.TrimSpace(p.ExternalID)
	if p.ExternalID == "" {
		return &StoreError{Op: "upsert", Err: ErrMissingID}
	}
	args, err := upsertArgs(p, s.now().UTC())
	if err != nil {
		return &StoreError{Op: "upsert", ExternalID: p.ExternalID, Err: err}
	}
	if _, err := s.pool.Exec(ctx, pgUpsert, args...); err != nil {
		return &StoreError{Op: "upsert", ExternalID: p.ExternalID, Err: err}
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, externalID string) (domain.CanonicalProfile, bool, error) {
	var r profileRow
	err := s.pool.QueryRow(ctx, pgSelect, externalID).Scan(r.dest()...)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.CanonicalProfile{}, false, nil
	}
	if err != nil {
		return domain.CanonicalProfile{}, false, &StoreError{Op: "get", ExternalID: externalID, Err: err}
	}
	p, err := r.profile()
	if err != nil {
		return p, false, &StoreError{Op: "get", ExternalID: externalID, Err: err}
	}
	return p, true, nil
}

func (s *Postgres) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&n); err != nil {
		return 0, &StoreError{Op: "count", Err: err}
	}
	return n, nil
}

func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}
