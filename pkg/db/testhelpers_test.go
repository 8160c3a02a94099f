package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// testStore is the shared store for the integration tests in this package.
// It stays nil when no container runtime is available, in which case the
// integration tests skip and only the SQL-builder unit tests run.
var testStore *Store

// TestMain starts a disposable PostGIS container, applies the embedded
// migrations through Store.Migrate, and hands the store to the tests.
func TestMain(m *testing.M) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgis/postgis:16-3.4-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		// The image restarts once during init, so wait for the second
		// ready line rather than the first open port.
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		log.Printf("skipping database integration tests: %v", err)
		os.Exit(m.Run())
	}
	defer func() {
		_ = container.Terminate(ctx)
	}()

	host, err := container.Host(ctx)
	if err != nil {
		log.Fatalf("getting container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		log.Fatalf("getting container port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	testStore, err = Connect(ctx, dsn)
	if err != nil {
		log.Fatalf("connecting to test db: %v", err)
	}
	defer testStore.Close()

	if err := testStore.Migrate(ctx); err != nil {
		log.Fatalf("migrating test db: %v", err)
	}

	os.Exit(m.Run())
}

// setupTestStore returns the shared store with an empty y_junctions table,
// or skips the test when no container is running.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	if testStore == nil {
		t.Skip("no container runtime available")
	}

	if _, err := testStore.pool.Exec(context.Background(), "TRUNCATE y_junctions"); err != nil {
		t.Fatalf("truncating y_junctions: %v", err)
	}
	return testStore
}
