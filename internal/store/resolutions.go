package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"alumni-engine/internal/domain"
)

// GetResolution returns a cached candidate younger than maxAge.
func (d *DB) GetResolution(ctx context.Context, key string, maxAge time.Duration) (domain.ResolvedCandidate, bool, error) {
	key = NormalizeResolutionKey(key)
	if key == "" {
		return domain.ResolvedCandidate{}, false, nil
	}

	var (
		c          domain.ResolvedCandidate
		strategy   string
		resolvedAt string
	)
	err := d.Pool.QueryRowContext(ctx,
		`SELECT url, strategy, confidence, resolved_at FROM resolutions WHERE key = ? LIMIT 1;`,
		key,
	).Scan(&c.URL, &strategy, &c.Confidence, &resolvedAt)

	if err == sql.ErrNoRows {
		return c, false, nil
	}
	if err != nil {
		return c, false, err
	}
	c.Strategy = domain.Strategy(strategy)

	if maxAge > 0 {
		t, err := time.Parse(time.RFC3339, resolvedAt)
		if err != nil || d.now().Sub(t) > maxAge {
			return domain.ResolvedCandidate{}, false, nil
		}
	}
	return c, true, nil
}

func (d *DB) PutResolution(ctx context.Context, key string, c domain.ResolvedCandidate) error {
	key = NormalizeResolutionKey(key)
	if key == "" || strings.TrimSpace(c.URL) == "" {
		return nil
	}

	_, err := d.Pool.ExecContext(ctx, `
INSERT INTO resolutions(key, url, strategy, confidence, resolved_at)
VALUES(?,?,?,?,?)
ON CONFLICT(key) DO UPDATE SET
  url = excluded.url,
  strategy = excluded.strategy,
  confidence = excluded.confidence,
  resolved_at = excluded.resolved_at;
`, key, c.URL, string(c.Strategy), c.Confidence, d.now().UTC().Format(time.RFC3339))

	return err
}

// PruneResolutions deletes cache entries older than maxAge.
func (d *DB) PruneResolutions(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := d.now().Add(-maxAge).UTC().Format(time.RFC3339)
	res, err := d.Pool.ExecContext(ctx, `DELETE FROM resolutions WHERE resolved_at < ?;`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func NormalizeResolutionKey(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ToLower(s)
	return s
}
