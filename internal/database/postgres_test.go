package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stwalsh4118/permithub/internal/config"
)

func getTestConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:     getEnvOrDefault("DB_HOST", "localhost"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		Name:     getEnvOrDefault("DB_NAME", "permithub_test"),
		User:     getEnvOrDefault("DB_USER", "postgres"),
		Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
		PoolMin:  1,
		PoolMax:  2,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func setupTestDatabase(t *testing.T) *Database {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := NewPostgresPool(ctx, getTestConfig())
	if err != nil {
		t.Skipf("Test database not available: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func TestNewPostgresPool_PingSucceeds(t *testing.T) {
	db := setupTestDatabase(t)
	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := setupTestDatabase(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("first Migrate failed: %v", err)
	}
	// re-running must be a no-op, never an error
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
}

func TestStats_ReturnsPoolStats(t *testing.T) {
	db := setupTestDatabase(t)
	if db.Stats() == nil {
		t.Fatal("expected pool stats, got nil")
	}
}
