package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stwalsh4118/permithub/internal/config"
	"github.com/stwalsh4118/permithub/internal/database"
	"github.com/stwalsh4118/permithub/internal/models"
)

// getTestConfig returns database configuration for integration tests.
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

// setupTestDatabase connects to the test database and runs the schema.
// Integration tests are skipped in short mode and when no database is
// reachable.
func setupTestDatabase(t *testing.T) *database.Database {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.NewPostgresPool(ctx, getTestConfig())
	if err != nil {
		t.Skipf("Test database not available: %v", err)
	}
	t.Cleanup(db.Close)

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	return db
}

func testPermit(permitNo string) (*models.BuildingPermit, models.PermitChildren) {
	issue := time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC)
	area := decimal.RequireFromString("123.45")
	floors := 12

	rec := &models.BuildingPermit{
		PermitNo:        permitNo,
		PermitYear:      "112",
		IssueDate:       &issue,
		District:        "大安區",
		Section:         "大安段",
		Subsection:      "一小段",
		ParcelNo:        "292-0000",
		Location:        "臺北市大安區和平東路100號",
		LandText:        "大安段一小段292",
		BuildingAreaSqm: &area,
		FloorsAbove:     &floors,
		Owner:           "王小明",
		Raw: &models.RawNode{
			Tag:      "Data",
			Attrs:    map[string]string{},
			Children: []*models.RawNode{},
		},
	}
	children := models.PermitChildren{
		Addresses: []string{"和平東路100號", "和平東路102號"},
		Parcels:   []string{"292", "293-1"},
		Floors:    []string{"1F 店鋪"},
	}
	return rec, children
}

func TestPermitRepository_SaveAndFindRoundTrip(t *testing.T) {
	db := setupTestDatabase(t)
	repo := NewPermitRepository(db)
	ctx := context.Background()

	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	rec, children := testPermit("112建字第0001號")
	created, err := repo.Save(ctx, rec, children, true)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !created {
		t.Fatal("expected first save to create")
	}

	got, err := repo.FindByPermitNo(ctx, rec.PermitNo)
	if err != nil {
		t.Fatalf("FindByPermitNo failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected permit, got nil")
	}
	if got.District != rec.District || got.ParcelNo != rec.ParcelNo {
		t.Fatalf("round trip mismatch: got %q/%q", got.District, got.ParcelNo)
	}
	if got.IssueDate == nil || !got.IssueDate.Equal(*rec.IssueDate) {
		t.Fatalf("issue date mismatch: got %v", got.IssueDate)
	}
	if got.BuildingAreaSqm == nil || !got.BuildingAreaSqm.Equal(*rec.BuildingAreaSqm) {
		t.Fatalf("area mismatch: got %v", got.BuildingAreaSqm)
	}
}

func TestPermitRepository_UpsertDoesNotDuplicateChildren(t *testing.T) {
	db := setupTestDatabase(t)
	repo := NewPermitRepository(db)
	ctx := context.Background()

	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	rec, children := testPermit("112建字第0002號")
	if _, err := repo.Save(ctx, rec, children, true); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}

	// re-import the same record with one fewer address
	children.Addresses = children.Addresses[:1]
	created, err := repo.Save(ctx, rec, children, true)
	if err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	if created {
		t.Fatal("expected second save to update, not create")
	}

	var addrCount int
	err = db.Pool.QueryRow(ctx,
		`SELECT count(*) FROM building_permit_addresses a
		 JOIN building_permits p ON p.id = a.permit_id
		 WHERE p.permit_no = $1`, rec.PermitNo).Scan(&addrCount)
	if err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if addrCount != 1 {
		t.Fatalf("expected children rebuilt to 1 address, got %d", addrCount)
	}
}

func TestPermitRepository_InsertOnlyFailsOnDuplicate(t *testing.T) {
	db := setupTestDatabase(t)
	repo := NewPermitRepository(db)
	ctx := context.Background()

	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	rec, children := testPermit("112建字第0003號")
	if _, err := repo.Save(ctx, rec, children, false); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if _, err := repo.Save(ctx, rec, children, false); err == nil {
		t.Fatal("expected duplicate insert-only save to fail")
	}
}

func TestPermitRepository_FindIDsByParcelKey(t *testing.T) {
	db := setupTestDatabase(t)
	repo := NewPermitRepository(db)
	ctx := context.Background()

	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	rec, children := testPermit("112建字第0004號")
	if _, err := repo.Save(ctx, rec, children, true); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	ids, err := repo.FindIDsByParcelKey(ctx, "大安區", "大安段", "一小段", "292-0000", 20)
	if err != nil {
		t.Fatalf("FindIDsByParcelKey failed: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("expected 1 id, got %d", len(ids))
	}

	ids, err = repo.FindIDsByParcelKey(ctx, "大安區", "大安段", "二小段", "292-0000", 20)
	if err != nil {
		t.Fatalf("FindIDsByParcelKey failed: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no ids for wrong subsection, got %d", len(ids))
	}
}

func TestPermitRepository_FindByPermitNo_Missing(t *testing.T) {
	db := setupTestDatabase(t)
	repo := NewPermitRepository(db)

	got, err := repo.FindByPermitNo(context.Background(), "不存在的號碼")
	if err != nil {
		t.Fatalf("expected nil error for missing permit, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil permit, got %+v", got)
	}
}
