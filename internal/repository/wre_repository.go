package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/permithub/internal/database"
	"github.com/stwalsh4118/permithub/internal/models"
)

// WreRepository defines data access for WRE reconstruction approvals.
// The source has no single natural key, so Save matches on the full
// (approve_date, district, section, subsection, parcel_no, address)
// combination with a select-then-write inside one transaction.
type WreRepository interface {
	Save(ctx context.Context, rec *models.WreApproval) (created bool, err error)

	// List returns approvals in id order, capped at limit (0 = all).
	List(ctx context.Context, limit int) ([]models.WreApproval, error)
}

type wreRepository struct {
	db *database.Database
}

// NewWreRepository creates a new instance of WreRepository.
func NewWreRepository(db *database.Database) WreRepository {
	return &wreRepository{db: db}
}

func (r *wreRepository) Save(ctx context.Context, rec *models.WreApproval) (bool, error) {
	rawJSON, err := json.Marshal(rec.Raw)
	if err != nil {
		return false, fmt.Errorf("marshal raw payload: %w", err)
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// IS NOT DISTINCT FROM so a NULL approve_date still matches itself.
	const findSQL = `
		SELECT id FROM wre_approvals
		WHERE approve_date IS NOT DISTINCT FROM $1
		  AND district = $2 AND section = $3 AND subsection = $4
		  AND parcel_no = $5 AND address = $6
		LIMIT 1`

	var id int64
	err = tx.QueryRow(ctx, findSQL,
		rec.ApproveDate, rec.District, rec.Section, rec.Subsection,
		rec.ParcelNo, rec.Address,
	).Scan(&id)

	created := false
	switch {
	case err == nil:
		const updateSQL = `
			UPDATE wre_approvals SET
				site_area_sqm = $2, site_area_ping = $3, raw = $4, updated_at = now()
			WHERE id = $1`
		if _, err := tx.Exec(ctx, updateSQL, id, rec.SiteAreaSqm, rec.SiteAreaPing, string(rawJSON)); err != nil {
			return false, fmt.Errorf("update wre approval %d: %w", id, err)
		}
	case errors.Is(err, pgx.ErrNoRows):
		const insertSQL = `
			INSERT INTO wre_approvals (
				approve_date, district, section, subsection, parcel_no, address,
				site_area_sqm, site_area_ping, raw
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id`
		err = tx.QueryRow(ctx, insertSQL,
			rec.ApproveDate, rec.District, rec.Section, rec.Subsection,
			rec.ParcelNo, rec.Address,
			rec.SiteAreaSqm, rec.SiteAreaPing, string(rawJSON),
		).Scan(&id)
		if err != nil {
			return false, fmt.Errorf("insert wre approval: %w", err)
		}
		created = true
	default:
		return false, fmt.Errorf("look up wre approval: %w", err)
	}
	rec.ID = id

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit wre approval %d: %w", id, err)
	}
	return created, nil
}

func (r *wreRepository) List(ctx context.Context, limit int) ([]models.WreApproval, error) {
	query := `
		SELECT id, approve_date, district, section, subsection, parcel_no, address,
		       site_area_sqm, site_area_ping, created_at, updated_at
		FROM wre_approvals
		ORDER BY id`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list wre approvals: %w", err)
	}
	defer rows.Close()

	var out []models.WreApproval
	for rows.Next() {
		var a models.WreApproval
		err := rows.Scan(
			&a.ID, &a.ApproveDate, &a.District, &a.Section, &a.Subsection,
			&a.ParcelNo, &a.Address,
			&a.SiteAreaSqm, &a.SiteAreaPing, &a.CreatedAt, &a.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan wre approval: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wre approvals: %w", err)
	}
	return out, nil
}
