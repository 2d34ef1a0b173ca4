//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kozaktomas/facepoke/internal/config"
	"github.com/kozaktomas/facepoke/internal/expression"
	"github.com/kozaktomas/facepoke/internal/landmark"
)

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
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
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}
	if container == nil {
		t.Skip("Docker not available, skipping integration test")
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dbURL := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	cfg := &config.DatabaseConfig{
		URL:          dbURL,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	pool, err := NewPool(cfg)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create pool: %v", err)
	}

	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}

	return pool, cleanup
}

func paramVector(params expression.Params) []float32 {
	return expression.ParamVector(params)
}

func TestHistoryRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewHistoryRepository(pool)

	happyLips := expression.Params{landmark.ParamAAA: 13, landmark.ParamEEE: 12}

	t.Run("SaveAndList", func(t *testing.T) {
		edit, err := expression.Normalize(landmark.Lips, expression.Vector{X: 0.41, Y: 0.21}, happyLips, expression.ModePrimary)
		if err != nil {
			t.Fatalf("Normalize: %v", err)
		}

		if err := repo.SaveEdit(ctx, "session-1", edit, paramVector(happyLips)); err != nil {
			t.Fatalf("Failed to save edit: %v", err)
		}

		eyebrow, err := expression.Normalize(landmark.LeftEyebrow, expression.Vector{Y: -0.3}, expression.Params{landmark.ParamEyebrow: 13}, expression.ModePrimary)
		if err != nil {
			t.Fatalf("Normalize: %v", err)
		}
		if err := repo.SaveEdit(ctx, "session-1", eyebrow, paramVector(happyLips)); err != nil {
			t.Fatalf("Failed to save edit: %v", err)
		}

		edits, err := repo.ListEdits(ctx, "session-1", 10)
		if err != nil {
			t.Fatalf("Failed to list edits: %v", err)
		}
		if len(edits) != 2 {
			t.Fatalf("Expected 2 edits, got %d", len(edits))
		}
		if edits[0].Group != "lips" {
			t.Errorf("Expected first edit on lips, got %s", edits[0].Group)
		}
		if edits[0].Params["aaa"] != 13 {
			t.Errorf("Expected aaa=13, got %v", edits[0].Params)
		}
	})

	t.Run("FindSimilarExpressions", func(t *testing.T) {
		results, err := repo.FindSimilarExpressions(ctx, paramVector(happyLips), 5)
		if err != nil {
			t.Fatalf("Failed to find similar expressions: %v", err)
		}
		if len(results) == 0 {
			t.Fatal("Expected results, got none")
		}
		if results[0].Distance > 1e-6 {
			t.Errorf("Exact match should have ~0 distance, got %v", results[0].Distance)
		}
		for i := 1; i < len(results); i++ {
			if results[i].Distance < results[i-1].Distance {
				t.Error("Distances not sorted")
			}
		}
	})

	t.Run("DeleteSession", func(t *testing.T) {
		if err := repo.DeleteSession(ctx, "session-1"); err != nil {
			t.Fatalf("Failed to delete session: %v", err)
		}

		edits, err := repo.ListEdits(ctx, "session-1", 10)
		if err != nil {
			t.Fatalf("Failed to list edits: %v", err)
		}
		if len(edits) != 0 {
			t.Errorf("Expected no edits after delete, got %d", len(edits))
		}
	})
}

func TestMigrations(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()

	applied, err := pool.MigrationsApplied(ctx)
	if err != nil {
		t.Fatalf("Failed to get applied migrations: %v", err)
	}

	expectedMigrations := []string{
		"001_create_edits.sql",
		"002_create_expression_snapshots.sql",
	}

	if len(applied) != len(expectedMigrations) {
		t.Errorf("Expected %d migrations, got %d", len(expectedMigrations), len(applied))
	}

	for i, expected := range expectedMigrations {
		if i < len(applied) && applied[i] != expected {
			t.Errorf("Migration %d: expected '%s', got '%s'", i, expected, applied[i])
		}
	}
}
