package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/types"
	"github.com/secmon-lab/briareos/pkg/repository/firestore"
	"github.com/secmon-lab/briareos/pkg/repository/memory"
	"github.com/secmon-lab/briareos/pkg/repository/postgres"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// backends returns one constructor per storage backend. Backends that need
// external resources skip themselves when those are unavailable.
func backends() map[string]func(t *testing.T) interfaces.Repository {
	return map[string]func(t *testing.T) interfaces.Repository{
		"Memory":    newMemoryRepository,
		"Firestore": newFirestoreRepository,
		"Postgres":  newPostgresRepository,
	}
}

func newMemoryRepository(t *testing.T) interfaces.Repository {
	return memory.New()
}

func newFirestoreRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}

	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	if databaseID == "" {
		t.Skip("TEST_FIRESTORE_DATABASE_ID not set")
	}

	ctx := context.Background()
	prefix := fmt.Sprintf("test_%d", time.Now().UnixNano())
	repo, err := firestore.New(ctx, projectID, databaseID, firestore.WithCollectionPrefix(prefix))
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})
	return repo
}

var (
	sharedPostgresDSN  string
	sharedPostgresOnce sync.Once
	sharedPostgresErr  error
)

// newPostgresRepository connects to a postgres:16 container shared by every
// test in the run. Tests isolate themselves with fresh team IDs.
func newPostgresRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	if os.Getenv("TEST_POSTGRES_DSN") == "" && testing.Short() {
		t.Skip("Skipping postgres test in short mode (requires Docker)")
	}

	sharedPostgresOnce.Do(func() {
		sharedPostgresDSN, sharedPostgresErr = setupPostgres()
	})
	gt.NoError(t, sharedPostgresErr).Required()

	repo, err := postgres.New(context.Background(), sharedPostgresDSN, postgres.WithMaxConns(5))
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})
	return repo
}

// setupPostgres uses TEST_POSTGRES_DSN when set and a container otherwise,
// then migrates the schema once for the whole run.
func setupPostgres() (string, error) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		var err error
		if dsn, err = startPostgres(); err != nil {
			return "", err
		}
	}
	if err := postgres.Migrate(dsn); err != nil {
		return "", err
	}
	return dsn, nil
}

func startPostgres() (string, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "briareos",
			"POSTGRES_USER":     "briareos",
			"POSTGRES_PASSWORD": "test_password",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("failed to get container port: %w", err)
	}

	return fmt.Sprintf("postgres://briareos:test_password@%s:%s/briareos?sslmode=disable", host, port.Port()), nil
}

// newTeamID isolates a test from data written by other tests on shared backends
func newTeamID() types.TeamID {
	return types.TeamID("team-" + uuid.NewString()[:8])
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func isConflict(err error) bool {
	return errors.Is(err, interfaces.ErrConflict)
}
