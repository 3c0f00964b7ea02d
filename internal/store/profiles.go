package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"alumni-engine/internal/domain"
)

var sqliteUpsert = upsertSQL(func(int) string { return "?" }, "")

const sqliteSelect = `
SELECT external_id, COALESCE(name, ''), COALESCE(first_name, ''), COALESCE(last_name, ''),
  COALESCE(headline, ''), COALESCE(about, ''), COALESCE(location, ''), COALESCE(city, ''),
  COALESCE(country_code, ''), COALESCE(email, ''), COALESCE(avatar_url, ''), COALESCE(profile_url, ''),
  COALESCE(followers, 0), COALESCE(connections, 0), COALESCE(current_company, ''),
  COALESCE(education, ''), COALESCE(experience, ''), COALESCE(skills, ''),
  COALESCE(batch, ''), COALESCE(branch, ''), COALESCE(graduation_year, ''), COALESCE(scraped_at, ''),
  data_quality_score, updated_at
FROM profiles
WHERE external_id = ?
LIMIT 1;
`

func (d *DB) Upsert(ctx context.Context, p domain.CanonicalProfile) error {
	p.ExternalID = strings.TrimSpace(p.ExternalID)
	if p.ExternalID == "" {
		return &StoreError{Op: "upsert", Err: ErrMissingID}
	}
	args, err := upsertArgs(p, d.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return &StoreError{Op: "upsert", ExternalID: p.ExternalID, Err: err}
	}
	if _, err := d.Pool.ExecContext(ctx, sqliteUpsert, args...); err != nil {
		return &StoreError{Op: "upsert", ExternalID: p.ExternalID, Err: err}
	}
	return nil
}

func (d *DB) Get(ctx context.Context, externalID string) (domain.CanonicalProfile, bool, error) {
	var r profileRow
	err := d.Pool.QueryRowContext(ctx, sqliteSelect, externalID).Scan(r.dest()...)
	if errors.Is(err, sql.ErrNoRows) {
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

func (d *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := d.Pool.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles;`).Scan(&n); err != nil {
		return 0, &StoreError{Op: "count", Err: err}
	}
	return n, nil
}
