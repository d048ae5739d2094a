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

// PermitRepository defines data access for building permits: the keyed
// create-or-update write path used by the XML importer, and the narrow
// query surface the matcher and the external reporting layer read through.
type PermitRepository interface {
	// Save upserts (or, when upsert is false, strictly inserts) the permit
	// by permit_no and rebuilds every child collection, all inside one
	// transaction. It reports whether the parent row was created.
	Save(ctx context.Context, rec *models.BuildingPermit, children models.PermitChildren, upsert bool) (created bool, err error)

	// Clear deletes every permit; child rows go with them via cascade.
	Clear(ctx context.Context) error

	// FindByPermitNo returns the permit with the given natural key.
	// Returns nil, nil when no permit matches (not an error).
	FindByPermitNo(ctx context.Context, permitNo string) (*models.BuildingPermit, error)

	// FindIDsByParcelKey returns permit IDs matching the full cadastral
	// key, capped at limit, in id order.
	FindIDsByParcelKey(ctx context.Context, district, section, subsection, parcelNo string, limit int) ([]int64, error)

	// FindIDsByLocationContains returns permit IDs whose location contains
	// key, capped at limit, in id order. Low-confidence read used only by
	// the matcher's fallback path.
	FindIDsByLocationContains(ctx context.Context, key string, limit int) ([]int64, error)
}

type permitRepository struct {
	db *database.Database
}

// NewPermitRepository creates a new instance of PermitRepository.
func NewPermitRepository(db *database.Database) PermitRepository {
	return &permitRepository{db: db}
}

// permitChildSpec maps each child collection to its table and text column.
var permitChildTables = []struct {
	table  string
	column string
	items  func(models.PermitChildren) []string
}{
	{"building_permit_addresses", "address_text", func(c models.PermitChildren) []string { return c.Addresses }},
	{"building_permit_parcels", "parcel_text", func(c models.PermitChildren) []string { return c.Parcels }},
	{"building_permit_floors", "floor_text", func(c models.PermitChildren) []string { return c.Floors }},
	{"building_permit_misc_items", "misc_text", func(c models.PermitChildren) []string { return c.MiscItems }},
	{"building_permit_note_items", "note_text", func(c models.PermitChildren) []string { return c.NoteItems }},
}

const permitUpsertSQL = `
	INSERT INTO building_permits (
		permit_no, permit_year, issue_date,
		district, section, subsection, parcel_no,
		build_type, structure, zoning,
		location, land_text, building_info, summary,
		building_area_sqm, arcade_site_area_sqm, other_site_area_sqm,
		building_count, block_count, floors_above, floors_below, unit_count,
		build_deadline, project_cost,
		owner, designer, supervisor,
		misc_works, applicable_law, notes, raw
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
		$21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31
	)
	ON CONFLICT (permit_no) DO UPDATE SET
		permit_year = EXCLUDED.permit_year,
		issue_date = EXCLUDED.issue_date,
		district = EXCLUDED.district,
		section = EXCLUDED.section,
		subsection = EXCLUDED.subsection,
		parcel_no = EXCLUDED.parcel_no,
		build_type = EXCLUDED.build_type,
		structure = EXCLUDED.structure,
		zoning = EXCLUDED.zoning,
		location = EXCLUDED.location,
		land_text = EXCLUDED.land_text,
		building_info = EXCLUDED.building_info,
		summary = EXCLUDED.summary,
		building_area_sqm = EXCLUDED.building_area_sqm,
		arcade_site_area_sqm = EXCLUDED.arcade_site_area_sqm,
		other_site_area_sqm = EXCLUDED.other_site_area_sqm,
		building_count = EXCLUDED.building_count,
		block_count = EXCLUDED.block_count,
		floors_above = EXCLUDED.floors_above,
		floors_below = EXCLUDED.floors_below,
		unit_count = EXCLUDED.unit_count,
		build_deadline = EXCLUDED.build_deadline,
		project_cost = EXCLUDED.project_cost,
		owner = EXCLUDED.owner,
		designer = EXCLUDED.designer,
		supervisor = EXCLUDED.supervisor,
		misc_works = EXCLUDED.misc_works,
		applicable_law = EXCLUDED.applicable_law,
		notes = EXCLUDED.notes,
		raw = EXCLUDED.raw,
		updated_at = now()
	RETURNING id, (xmax = 0) AS inserted`

// insert-only variant: a duplicate natural key is a hard error by design,
// used for first-time loads.
const permitInsertSQL = `
	INSERT INTO building_permits (
		permit_no, permit_year, issue_date,
		district, section, subsection, parcel_no,
		build_type, structure, zoning,
		location, land_text, building_info, summary,
		building_area_sqm, arcade_site_area_sqm, other_site_area_sqm,
		building_count, block_count, floors_above, floors_below, unit_count,
		build_deadline, project_cost,
		owner, designer, supervisor,
		misc_works, applicable_law, notes, raw
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
		$21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31
	)
	RETURNING id, true AS inserted`

func (r *permitRepository) Save(ctx context.Context, rec *models.BuildingPermit, children models.PermitChildren, upsert bool) (bool, error) {
	rawJSON, err := json.Marshal(rec.Raw)
	if err != nil {
		return false, fmt.Errorf("marshal raw payload for %s: %w", rec.PermitNo, err)
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := permitInsertSQL
	if upsert {
		query = permitUpsertSQL
	}

	var (
		id       int64
		inserted bool
	)
	err = tx.QueryRow(ctx, query,
		rec.PermitNo, rec.PermitYear, rec.IssueDate,
		rec.District, rec.Section, rec.Subsection, rec.ParcelNo,
		rec.BuildType, rec.Structure, rec.Zoning,
		rec.Location, rec.LandText, rec.BuildingInfo, rec.Summary,
		rec.BuildingAreaSqm, rec.ArcadeSiteAreaSqm, rec.OtherSiteAreaSqm,
		rec.BuildingCount, rec.BlockCount, rec.FloorsAbove, rec.FloorsBelow, rec.UnitCount,
		rec.BuildDeadline, rec.ProjectCost,
		rec.Owner, rec.Designer, rec.Supervisor,
		rec.MiscWorks, rec.ApplicableLaw, rec.Notes, string(rawJSON),
	).Scan(&id, &inserted)
	if err != nil {
		return false, fmt.Errorf("write permit %s: %w", rec.PermitNo, err)
	}
	rec.ID = id

	// Child collections are always deleted and rebuilt in full so repeated
	// imports cannot accumulate duplicates or orphans.
	for _, spec := range permitChildTables {
		if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE permit_id = $1`, spec.table), id); err != nil {
			return false, fmt.Errorf("clear %s for permit %s: %w", spec.table, rec.PermitNo, err)
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
			return false, fmt.Errorf("insert %s for permit %s: %w", spec.table, rec.PermitNo, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit permit %s: %w", rec.PermitNo, err)
	}
	return inserted, nil
}

func (r *permitRepository) Clear(ctx context.Context) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM building_permits`); err != nil {
		return fmt.Errorf("clear building permits: %w", err)
	}
	return nil
}

func (r *permitRepository) FindByPermitNo(ctx context.Context, permitNo string) (*models.BuildingPermit, error) {
	const query = `
		SELECT
			id, permit_no, permit_year, issue_date,
			district, section, subsection, parcel_no,
			build_type, structure, zoning,
			location, land_text, building_info, summary,
			building_area_sqm, arcade_site_area_sqm, other_site_area_sqm,
			building_count, block_count, floors_above, floors_below, unit_count,
			build_deadline, project_cost,
			owner, designer, supervisor,
			misc_works, applicable_law, notes,
			created_at, updated_at
		FROM building_permits
		WHERE permit_no = $1`

	var p models.BuildingPermit
	err := r.db.Pool.QueryRow(ctx, query, permitNo).Scan(
		&p.ID, &p.PermitNo, &p.PermitYear, &p.IssueDate,
		&p.District, &p.Section, &p.Subsection, &p.ParcelNo,
		&p.BuildType, &p.Structure, &p.Zoning,
		&p.Location, &p.LandText, &p.BuildingInfo, &p.Summary,
		&p.BuildingAreaSqm, &p.ArcadeSiteAreaSqm, &p.OtherSiteAreaSqm,
		&p.BuildingCount, &p.BlockCount, &p.FloorsAbove, &p.FloorsBelow, &p.UnitCount,
		&p.BuildDeadline, &p.ProjectCost,
		&p.Owner, &p.Designer, &p.Supervisor,
		&p.MiscWorks, &p.ApplicableLaw, &p.Notes,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find permit %s: %w", permitNo, err)
	}
	return &p, nil
}

func (r *permitRepository) FindIDsByParcelKey(ctx context.Context, district, section, subsection, parcelNo string, limit int) ([]int64, error) {
	const query = `
		SELECT id FROM building_permits
		WHERE district = $1 AND section = $2 AND subsection = $3 AND parcel_no = $4
		ORDER BY id
		LIMIT $5`
	return r.scanIDs(ctx, query, district, section, subsection, parcelNo, limit)
}

func (r *permitRepository) FindIDsByLocationContains(ctx context.Context, key string, limit int) ([]int64, error) {
	const query = `
		SELECT id FROM building_permits
		WHERE location LIKE '%' || $1 || '%'
		ORDER BY id
		LIMIT $2`
	return r.scanIDs(ctx, query, key, limit)
}

func (r *permitRepository) scanIDs(ctx context.Context, query string, args ...interface{}) ([]int64, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query permit ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan permit id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate permit ids: %w", err)
	}
	return ids, nil
}
