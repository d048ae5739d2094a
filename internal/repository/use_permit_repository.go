package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/permithub/internal/database"
	"github.com/stwalsh4118/permithub/internal/models"
)

// UsePermitRepository defines data access for occupancy (use) permits,
// keyed by the (permit_year, permit_no) pair.
type UsePermitRepository interface {
	// Save upserts (or strictly inserts) the use permit and rebuilds every
	// child collection inside one transaction, reporting creation.
	Save(ctx context.Context, rec *models.UsePermit, children models.UsePermitChildren, upsert bool) (created bool, err error)

	// Clear deletes every use permit; children cascade.
	Clear(ctx context.Context) error
}

type usePermitRepository struct {
	db *database.Database
}

// NewUsePermitRepository creates a new instance of UsePermitRepository.
func NewUsePermitRepository(db *database.Database) UsePermitRepository {
	return &usePermitRepository{db: db}
}

var usePermitChildTables = []struct {
	table  string
	column string
	items  func(models.UsePermitChildren) []string
}{
	{"use_permit_addresses", "address_text", func(c models.UsePermitChildren) []string { return c.Addresses }},
	{"use_permit_parcels", "parcel_text", func(c models.UsePermitChildren) []string { return c.Parcels }},
	{"use_permit_floors", "floor_text", func(c models.UsePermitChildren) []string { return c.Floors }},
	{"use_permit_parkings", "parking_text", func(c models.UsePermitChildren) []string { return c.Parkings }},
	{"use_permit_notes", "note_text", func(c models.UsePermitChildren) []string { return c.Notes }},
}

const usePermitColumns = `
		permit_year, permit_no, issue_date_text, original_permit_no,
		designer, supervisor, contractor,
		build_type, structure_type, zoning,
		building_count, block_count, floors_above, floors_below, unit_count,
		arcade_site_area_sqm, other_site_area_sqm, footprint_area_sqm,
		legal_open_space_sqm, refuge_area_above_sqm, refuge_area_below_sqm,
		building_height_m,
		project_cost_text, completion_date_text, start_date_text,
		law_summary, change_summary_text, raw`

const usePermitPlaceholders = `
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
		$21, $22, $23, $24, $25, $26, $27, $28`

var useUpsertSQL = `
	INSERT INTO use_permits (` + usePermitColumns + `) VALUES (` + usePermitPlaceholders + `)
	ON CONFLICT (permit_year, permit_no) DO UPDATE SET
		issue_date_text = EXCLUDED.issue_date_text,
		original_permit_no = EXCLUDED.original_permit_no,
		designer = EXCLUDED.designer,
		supervisor = EXCLUDED.supervisor,
		contractor = EXCLUDED.contractor,
		build_type = EXCLUDED.build_type,
		structure_type = EXCLUDED.structure_type,
		zoning = EXCLUDED.zoning,
		building_count = EXCLUDED.building_count,
		block_count = EXCLUDED.block_count,
		floors_above = EXCLUDED.floors_above,
		floors_below = EXCLUDED.floors_below,
		unit_count = EXCLUDED.unit_count,
		arcade_site_area_sqm = EXCLUDED.arcade_site_area_sqm,
		other_site_area_sqm = EXCLUDED.other_site_area_sqm,
		footprint_area_sqm = EXCLUDED.footprint_area_sqm,
		legal_open_space_sqm = EXCLUDED.legal_open_space_sqm,
		refuge_area_above_sqm = EXCLUDED.refuge_area_above_sqm,
		refuge_area_below_sqm = EXCLUDED.refuge_area_below_sqm,
		building_height_m = EXCLUDED.building_height_m,
		project_cost_text = EXCLUDED.project_cost_text,
		completion_date_text = EXCLUDED.completion_date_text,
		start_date_text = EXCLUDED.start_date_text,
		law_summary = EXCLUDED.law_summary,
		change_summary_text = EXCLUDED.change_summary_text,
		raw = EXCLUDED.raw,
		updated_at = now()
	RETURNING id, (xmax = 0) AS inserted`

var useInsertSQL = `
	INSERT INTO use_permits (` + usePermitColumns + `) VALUES (` + usePermitPlaceholders + `)
	RETURNING id, true AS inserted`

func (r *usePermitRepository) Save(ctx context.Context, rec *models.UsePermit, children models.UsePermitChildren, upsert bool) (bool, error) {
	key := rec.PermitYear + "/" + rec.PermitNo

	rawJSON, err := json.Marshal(rec.Raw)
	if err != nil {
		return false, fmt.Errorf("marshal raw payload for %s: %w", key, err)
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := useInsertSQL
	if upsert {
		query = useUpsertSQL
	}

	var (
		id       int64
		inserted bool
	)
	err = tx.QueryRow(ctx, query,
		rec.PermitYear, rec.PermitNo, rec.IssueDateText, rec.OriginalPermitNo,
		rec.Designer, rec.Supervisor, rec.Contractor,
		rec.BuildType, rec.StructureType, rec.Zoning,
		rec.BuildingCount, rec.BlockCount, rec.FloorsAbove, rec.FloorsBelow, rec.UnitCount,
		rec.ArcadeSiteAreaSqm, rec.OtherSiteAreaSqm, rec.FootprintAreaSqm,
		rec.LegalOpenSpaceSqm, rec.RefugeAreaAboveSqm, rec.RefugeAreaBelowSqm,
		rec.BuildingHeightM,
		rec.ProjectCostText, rec.CompletionDateText, rec.StartDateText,
		rec.LawSummary, rec.ChangeSummaryText, string(rawJSON),
	).Scan(&id, &inserted)
	if err != nil {
		return false, fmt.Errorf("write use permit %s: %w", key, err)
	}
	rec.ID = id

	// delete-and-rebuild every child collection
	for _, spec := range usePermitChildTables {
		if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE permit_id = $1`, spec.table), id); err != nil {
			return false, fmt.Errorf("clear %s for use permit %s: %w", spec.table, key, err)
		}
		items := spec.items(children)
		if len(items) == 0 {
			continue
		}
		rows := make([][]interface{}, len(items))
		for i, text := range items {
			rows[i] = []interface{}{id, i + 1, text}
		}
		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{spec.table},
			[]string{"permit_id", "seq", spec.column},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return false, fmt.Errorf("insert %s for use permit %s: %w", spec.table, key, err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM use_permit_change_approvals WHERE permit_id = $1`, id); err != nil {
		return false, fmt.Errorf("clear change approvals for use permit %s: %w", key, err)
	}
	if len(children.ChangeApprovals) > 0 {
		rows := make([][]interface{}, len(children.ChangeApprovals))
		for i, ca := range children.ChangeApprovals {
			rows[i] = []interface{}{id, i + 1, ca.ApprovalText, ca.CompletionText}
		}
		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"use_permit_change_approvals"},
			[]string{"permit_id", "seq", "change_approval_text", "change_completion_text"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return false, fmt.Errorf("insert change approvals for use permit %s: %w", key, err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM use_permit_misc_works WHERE permit_id = $1`, id); err != nil {
		return false, fmt.Errorf("clear misc work for use permit %s: %w", key, err)
	}
	if children.MiscWorkDesc != "" {
		_, err := tx.Exec(ctx,
			`INSERT INTO use_permit_misc_works (permit_id, description) VALUES ($1, $2)`,
			id, children.MiscWorkDesc,
		)
		if err != nil {
			return false, fmt.Errorf("insert misc work for use permit %s: %w", key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit use permit %s: %w", key, err)
	}
	return inserted, nil
}

func (r *usePermitRepository) Clear(ctx context.Context) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM use_permits`); err != nil {
		return fmt.Errorf("clear use permits: %w", err)
	}
	return nil
}
