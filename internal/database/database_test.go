package database

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rajasatyajit/lifesaver/config"
	"github.com/rajasatyajit/lifesaver/internal/logger"
)

func TestNew_NoDatabase(t *testing.T) {
	logger.Init("error", "text")

	db, err := New(context.Background(), config.DatabaseConfig{URL: ""})
	if err != nil {
		t.Fatalf("Expected no error for empty database URL, got %v", err)
	}
	if db == nil {
		t.Fatal("Expected DB instance, got nil")
	}
	if db.pool != nil {
		t.Error("Expected pool to be nil when no database URL provided")
	}
	if db.IsConfigured() {
		t.Error("Expected IsConfigured to return false when no database")
	}
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New(context.Background(), config.DatabaseConfig{URL: "invalid-url", MaxConns: 1})
	if err == nil {
		t.Error("Expected error for invalid database URL, got nil")
	}
}

func TestDB_Operations_NoPool(t *testing.T) {
	db := &DB{cfg: config.DatabaseConfig{}}
	ctx := context.Background()

	if err := db.Exec(ctx, "SELECT 1"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Exec: expected ErrNotConfigured, got %v", err)
	}

	if _, err := db.Query(ctx, "SELECT 1"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Query: expected ErrNotConfigured, got %v", err)
	}

	var n int
	if err := db.QueryRow(ctx, "SELECT 1").Scan(&n); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("QueryRow: expected ErrNotConfigured, got %v", err)
	}

	if err := db.Health(ctx); err == nil {
		t.Error("Expected error for Health with no pool, got nil")
	}

	if err := db.EnsureSchema(ctx); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("EnsureSchema: expected ErrNotConfigured, got %v", err)
	}
}

func TestDB_Close(t *testing.T) {
	db := &DB{cfg: config.DatabaseConfig{}}
	// Should not panic when closing with no pool
	db.Close(context.Background())
}

func TestDB_CollectMetrics_NoPool(t *testing.T) {
	db := &DB{cfg: config.DatabaseConfig{}}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// Should return immediately when no pool
	db.collectMetrics(ctx)
}

func TestSchema_Embedded(t *testing.T) {
	for _, want := range []string{
		"CREATE TABLE IF NOT EXISTS reports",
		"seq          BIGSERIAL",
		"categories   TEXT[]",
		"answers      JSONB",
		"duplicate_of TEXT",
	} {
		if !strings.Contains(schema, want) {
			t.Errorf("schema missing %q", want)
		}
	}
}

func BenchmarkDB_Health(b *testing.B) {
	db := &DB{cfg: config.DatabaseConfig{}}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		db.Health(ctx)
	}
}
