package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alumni-engine/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "alumni.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleProfile() domain.CanonicalProfile {
	return domain.CanonicalProfile{
		ExternalID: "asha-rao-19",
		Name:       "Asha Rao",
		Headline:   "Software Engineer",
		About:      "Builds backends.",
		Location:   "Bengaluru",
		Followers:  812,
		CurrentCompany: &domain.CurrentCompany{
			Name:  "Acme",
			Title: "Software Engineer",
		},
		Education: []domain.Education{
			{Institution: "IIIT Naya Raipur", Degree: "B.Tech", StartYear: "2019", EndYear: "2023"},
		},
		Experience: []domain.Experience{
			{Title: "Software Engineer", Company: "Acme", StartDate: "Aug 2023", EndDate: "Present", Current: true},
		},
		Skills:           domain.Skills{Technical: []string{"Go"}},
		Batch:            "2019-2023",
		Branch:           "CSE",
		GraduationYear:   "2023",
		DataQualityScore: 1,
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	p := sampleProfile()

	require.NoError(t, db.Upsert(ctx, p))
	require.NoError(t, db.Upsert(ctx, p))

	n, err := db.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, ok, err := db.Get(ctx, p.ExternalID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.Education, got.Education)
	assert.Equal(t, p.Experience, got.Experience)
	assert.Equal(t, p.CurrentCompany, got.CurrentCompany)
	assert.Equal(t, p.Skills, got.Skills)
	assert.Equal(t, 812, got.Followers)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestUpsertMergesByPresence(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, db.Upsert(ctx, sampleProfile()))

	// second source reports a new headline but no about, education or company
	update := domain.CanonicalProfile{
		ExternalID:       "asha-rao-19",
		Name:             "Asha Rao",
		Headline:         "Senior Software Engineer",
		DataQualityScore: 0.25,
	}
	require.NoError(t, db.Upsert(ctx, update))

	got, ok, err := db.Get(ctx, "asha-rao-19")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Senior Software Engineer", got.Headline)
	assert.Equal(t, "Builds backends.", got.About)
	assert.Equal(t, "2019-2023", got.Batch)
	require.NotNil(t, got.CurrentCompany)
	assert.Equal(t, "Acme", got.CurrentCompany.Name)
	assert.Len(t, got.Education, 1)
	assert.Equal(t, 0.25, got.DataQualityScore)

	n, err := db.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUpsertConcurrentDistinctIDs(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := sampleProfile()
			p.ExternalID = fmt.Sprintf("alum-%02d", i)
			errs <- db.Upsert(ctx, p)
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	n, err := db.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}

func TestUpsertWithoutIDIsStoreError(t *testing.T) {
	db := openTestDB(t)
	err := db.Upsert(context.Background(), domain.CanonicalProfile{Name: "x"})

	var se *StoreError
	require.True(t, errors.As(err, &se))
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestGetMissing(t *testing.T) {
	_, ok, err := openTestDB(t).Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolutionCache(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	db.now = func() time.Time { return now }

	c := domain.ResolvedCandidate{URL: "https://www.linkedin.com/in/asha-rao-19", Confidence: 0.93, Strategy: domain.StrategyFallback}
	require.NoError(t, db.PutResolution(ctx, "  Asha   Rao|2019-2023 ", c))

	got, ok, err := db.GetResolution(ctx, "asha rao|2019-2023", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, c, got)

	now = now.Add(2 * time.Hour)
	_, ok, err = db.GetResolution(ctx, "asha rao|2019-2023", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok, "expired entries are ignored")

	n, err := db.PruneResolutions(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMigrateIsRepeatable(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db.Pool))
	require.NoError(t, Migrate(db.Pool))

	var version int
	require.NoError(t, db.Pool.QueryRow(`PRAGMA user_version;`).Scan(&version))
	assert.Equal(t, schemaVersion, version)

	// scraped_at is part of the base schema
	ctx := context.Background()
	p := sampleProfile()
	p.ScrapedAt = "2025-01-02T03:04:05Z"
	require.NoError(t, db.Upsert(ctx, p))
	got, ok, err := db.Get(ctx, p.ExternalID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, p.ScrapedAt, got.ScrapedAt)
}
