//go:build integration

package store

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"alumni-engine/internal/domain"
)

var pgDSN string

func TestMain(m *testing.M) {
	// ryuk needs privileged docker access that CI runners often lack
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "alumni",
				"POSTGRES_PASSWORD": "alumni",
				"POSTGRES_DB":       "alumni",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("start postgres container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		log.Fatalf("container host: %v", err)
	}
	if host == "" || host == "null" {
		host = "localhost"
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		log.Fatalf("mapped port: %v", err)
	}
	pgDSN = fmt.Sprintf("postgres://alumni:alumni@%s:%s/alumni?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestPostgresUpsertMergesByPresence(t *testing.T) {
	ctx := context.Background()
	s, err := OpenPostgres(ctx, pgDSN)
	require.NoError(t, err)
	defer s.Close()

	p := sampleProfile()
	require.NoError(t, s.Upsert(ctx, p))
	require.NoError(t, s.Upsert(ctx, p))
	require.NoError(t, s.Upsert(ctx, domain.CanonicalProfile{
		ExternalID: p.ExternalID,
		Headline:   "Staff Engineer",
	}))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, ok, err := s.Get(ctx, p.ExternalID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Staff Engineer", got.Headline)
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.Education, got.Education)
	assert.Equal(t, p.Skills, got.Skills)
	assert.False(t, got.UpdatedAt.IsZero())
}
