package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/permithub/internal/database"
	"github.com/stwalsh4118/permithub/internal/models"
)

// RenewalRepository defines data access for urban-renewal cases and their
// bonus lines, keyed by (source, case_no).
type RenewalRepository interface {
	// Save upserts the case and delete-and-rebuilds its bonus lines inside
	// one transaction. A nil bonus slice still clears stale lines.
	Save(ctx context.Context, rec *models.RenewalCase, bonuses []models.RenewalBonus) (created bool, err error)

	// Clear deletes every case of the given source; bonuses cascade.
	Clear(ctx context.Context, source string) error
}

type renewalRepository struct {
	db *database.Database
}

// NewRenewalRepository creates a new instance of RenewalRepository.
func NewRenewalRepository(db *database.Database) RenewalRepository {
	return &renewalRepository{db: db}
}

const renewalUpsertSQL = `
	INSERT INTO renewal_cases (
		source, case_no, total_bonus_pct,
		district, section, subsection, parcel_no, address,
		approved_date, site_area_sqm, site_area_ping, raw
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (source, case_no) DO UPDATE SET
		total_bonus_pct = EXCLUDED.total_bonus_pct,
		district = EXCLUDED.district,
		section = EXCLUDED.section,
		subsection = EXCLUDED.subsection,
		parcel_no = EXCLUDED.parcel_no,
		address = EXCLUDED.address,
		approved_date = EXCLUDED.approved_date,
		site_area_sqm = EXCLUDED.site_area_sqm,
		site_area_ping = EXCLUDED.site_area_ping,
		raw = EXCLUDED.raw,
		updated_at = now()
	RETURNING id, (xmax = 0) AS inserted`

func (r *renewalRepository) Save(ctx context.Context, rec *models.RenewalCase, bonuses []models.RenewalBonus) (bool, error) {
	rawJSON, err := json.Marshal(rec.Raw)
	if err != nil {
		return false, fmt.Errorf("marshal raw payload for case %d: %w", rec.CaseNo, err)
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		id       int64
		inserted bool
	)
	err = tx.QueryRow(ctx, renewalUpsertSQL,
		rec.Source, rec.CaseNo, rec.TotalBonusPct,
		rec.District, rec.Section, rec.Subsection, rec.ParcelNo, rec.Address,
		rec.ApprovedDate, rec.SiteAreaSqm, rec.SiteAreaPing, string(rawJSON),
	).Scan(&id, &inserted)
	if err != nil {
		return false, fmt.Errorf("write renewal case %d: %w", rec.CaseNo, err)
	}
	rec.ID = id

	if _, err := tx.Exec(ctx, `DELETE FROM renewal_bonuses WHERE case_id = $1`, id); err != nil {
		return false, fmt.Errorf("clear bonuses for case %d: %w", rec.CaseNo, err)
	}
	if len(bonuses) > 0 {
		rows := make([][]interface{}, len(bonuses))
		for i, b := range bonuses {
			rows[i] = []interface{}{id, b.Code, b.BonusPct}
		}
		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"renewal_bonuses"},
			[]string{"case_id", "code", "bonus_pct"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return false, fmt.Errorf("insert bonuses for case %d: %w", rec.CaseNo, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit renewal case %d: %w", rec.CaseNo, err)
	}
	return inserted, nil
}

func (r *renewalRepository) Clear(ctx context.Context, source string) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM renewal_cases WHERE source = $1`, source); err != nil {
		return fmt.Errorf("clear renewal cases for %s: %w", source, err)
	}
	return nil
}
