package database

import (
	"context"
	"fmt"
)

// Migrate ensures every table the importers write to exists. Statements
// are idempotent (CREATE ... IF NOT EXISTS) and run in order, so the
// import commands can call this unconditionally on startup.
func (db *Database) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS building_permits (
		id                   BIGSERIAL PRIMARY KEY,
		permit_no            VARCHAR(64) NOT NULL UNIQUE,
		permit_year          VARCHAR(10) NOT NULL DEFAULT '',
		issue_date           DATE,
		district             VARCHAR(32) NOT NULL DEFAULT '',
		section              VARCHAR(64) NOT NULL DEFAULT '',
		subsection           VARCHAR(64) NOT NULL DEFAULT '',
		parcel_no            VARCHAR(32) NOT NULL DEFAULT '',
		build_type           VARCHAR(32) NOT NULL DEFAULT '',
		structure            VARCHAR(128) NOT NULL DEFAULT '',
		zoning               VARCHAR(128) NOT NULL DEFAULT '',
		location             VARCHAR(256) NOT NULL DEFAULT '',
		land_text            TEXT NOT NULL DEFAULT '',
		building_info        TEXT NOT NULL DEFAULT '',
		summary              TEXT NOT NULL DEFAULT '',
		building_area_sqm    NUMERIC(12,2),
		arcade_site_area_sqm NUMERIC(12,2),
		other_site_area_sqm  NUMERIC(12,2),
		building_count       INTEGER,
		block_count          INTEGER,
		floors_above         INTEGER,
		floors_below         INTEGER,
		unit_count           INTEGER,
		build_deadline       VARCHAR(64) NOT NULL DEFAULT '',
		project_cost         BIGINT,
		owner                VARCHAR(256) NOT NULL DEFAULT '',
		designer             VARCHAR(256) NOT NULL DEFAULT '',
		supervisor           VARCHAR(256) NOT NULL DEFAULT '',
		misc_works           TEXT NOT NULL DEFAULT '',
		applicable_law       TEXT NOT NULL DEFAULT '',
		notes                TEXT NOT NULL DEFAULT '',
		raw                  JSONB NOT NULL DEFAULT '{}',
		created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_building_permits_parcel_key
		ON building_permits (district, section, subsection, parcel_no)`,
	`CREATE INDEX IF NOT EXISTS idx_building_permits_designer
		ON building_permits (designer)`,

	`CREATE TABLE IF NOT EXISTS building_permit_addresses (
		id           BIGSERIAL PRIMARY KEY,
		permit_id    BIGINT NOT NULL REFERENCES building_permits(id) ON DELETE CASCADE,
		seq          INTEGER NOT NULL,
		address_text VARCHAR(512) NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bp_addresses_permit_seq
		ON building_permit_addresses (permit_id, seq)`,

	`CREATE TABLE IF NOT EXISTS building_permit_parcels (
		id          BIGSERIAL PRIMARY KEY,
		permit_id   BIGINT NOT NULL REFERENCES building_permits(id) ON DELETE CASCADE,
		seq         INTEGER NOT NULL,
		parcel_text VARCHAR(256) NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bp_parcels_permit_seq
		ON building_permit_parcels (permit_id, seq)`,

	`CREATE TABLE IF NOT EXISTS building_permit_floors (
		id         BIGSERIAL PRIMARY KEY,
		permit_id  BIGINT NOT NULL REFERENCES building_permits(id) ON DELETE CASCADE,
		seq        INTEGER NOT NULL,
		floor_text TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bp_floors_permit_seq
		ON building_permit_floors (permit_id, seq)`,

	`CREATE TABLE IF NOT EXISTS building_permit_misc_items (
		id         BIGSERIAL PRIMARY KEY,
		permit_id  BIGINT NOT NULL REFERENCES building_permits(id) ON DELETE CASCADE,
		seq        INTEGER NOT NULL,
		misc_text  TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bp_misc_permit_seq
		ON building_permit_misc_items (permit_id, seq)`,

	`CREATE TABLE IF NOT EXISTS building_permit_note_items (
		id         BIGSERIAL PRIMARY KEY,
		permit_id  BIGINT NOT NULL REFERENCES building_permits(id) ON DELETE CASCADE,
		seq        INTEGER NOT NULL,
		note_text  TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bp_notes_permit_seq
		ON building_permit_note_items (permit_id, seq)`,

	`CREATE TABLE IF NOT EXISTS use_permits (
		id                    BIGSERIAL PRIMARY KEY,
		permit_year           VARCHAR(16) NOT NULL,
		permit_no             VARCHAR(64) NOT NULL,
		issue_date_text       VARCHAR(32) NOT NULL DEFAULT '',
		original_permit_no    VARCHAR(256) NOT NULL DEFAULT '',
		designer              VARCHAR(256) NOT NULL DEFAULT '',
		supervisor            VARCHAR(256) NOT NULL DEFAULT '',
		contractor            VARCHAR(256) NOT NULL DEFAULT '',
		build_type            VARCHAR(128) NOT NULL DEFAULT '',
		structure_type        VARCHAR(128) NOT NULL DEFAULT '',
		zoning                VARCHAR(256) NOT NULL DEFAULT '',
		building_count        INTEGER,
		block_count           INTEGER,
		floors_above          INTEGER,
		floors_below          INTEGER,
		unit_count            INTEGER,
		arcade_site_area_sqm  NUMERIC(18,4),
		other_site_area_sqm   NUMERIC(18,4),
		footprint_area_sqm    NUMERIC(18,4),
		legal_open_space_sqm  NUMERIC(18,4),
		refuge_area_above_sqm NUMERIC(18,4),
		refuge_area_below_sqm NUMERIC(18,4),
		building_height_m     NUMERIC(18,4),
		project_cost_text     VARCHAR(64) NOT NULL DEFAULT '',
		completion_date_text  VARCHAR(32) NOT NULL DEFAULT '',
		start_date_text       VARCHAR(32) NOT NULL DEFAULT '',
		law_summary           TEXT NOT NULL DEFAULT '',
		change_summary_text   TEXT NOT NULL DEFAULT '',
		raw                   JSONB NOT NULL DEFAULT '{}',
		created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (permit_year, permit_no)
	)`,

	`CREATE TABLE IF NOT EXISTS use_permit_addresses (
		id           BIGSERIAL PRIMARY KEY,
		permit_id    BIGINT NOT NULL REFERENCES use_permits(id) ON DELETE CASCADE,
		seq          INTEGER NOT NULL,
		address_text VARCHAR(512) NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_up_addresses_permit_seq
		ON use_permit_addresses (permit_id, seq)`,

	`CREATE TABLE IF NOT EXISTS use_permit_parcels (
		id          BIGSERIAL PRIMARY KEY,
		permit_id   BIGINT NOT NULL REFERENCES use_permits(id) ON DELETE CASCADE,
		seq         INTEGER NOT NULL,
		parcel_text VARCHAR(256) NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_up_parcels_permit_seq
		ON use_permit_parcels (permit_id, seq)`,

	`CREATE TABLE IF NOT EXISTS use_permit_floors (
		id         BIGSERIAL PRIMARY KEY,
		permit_id  BIGINT NOT NULL REFERENCES use_permits(id) ON DELETE CASCADE,
		seq        INTEGER NOT NULL,
		floor_text TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_up_floors_permit_seq
		ON use_permit_floors (permit_id, seq)`,

	`CREATE TABLE IF NOT EXISTS use_permit_parkings (
		id           BIGSERIAL PRIMARY KEY,
		permit_id    BIGINT NOT NULL REFERENCES use_permits(id) ON DELETE CASCADE,
		seq          INTEGER NOT NULL,
		parking_text TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_up_parkings_permit_seq
		ON use_permit_parkings (permit_id, seq)`,

	`CREATE TABLE IF NOT EXISTS use_permit_notes (
		id         BIGSERIAL PRIMARY KEY,
		permit_id  BIGINT NOT NULL REFERENCES use_permits(id) ON DELETE CASCADE,
		seq        INTEGER NOT NULL,
		note_text  TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_up_notes_permit_seq
		ON use_permit_notes (permit_id, seq)`,

	`CREATE TABLE IF NOT EXISTS use_permit_change_approvals (
		id                     BIGSERIAL PRIMARY KEY,
		permit_id              BIGINT NOT NULL REFERENCES use_permits(id) ON DELETE CASCADE,
		seq                    INTEGER NOT NULL,
		change_approval_text   VARCHAR(128) NOT NULL DEFAULT '',
		change_completion_text VARCHAR(128) NOT NULL DEFAULT '',
		created_at             TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_up_changes_permit_seq
		ON use_permit_change_approvals (permit_id, seq)`,

	`CREATE TABLE IF NOT EXISTS use_permit_misc_works (
		id          BIGSERIAL PRIMARY KEY,
		permit_id   BIGINT NOT NULL UNIQUE REFERENCES use_permits(id) ON DELETE CASCADE,
		description TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS renewal_cases (
		id              BIGSERIAL PRIMARY KEY,
		source          VARCHAR(32) NOT NULL DEFAULT 'taipei_ur',
		case_no         INTEGER NOT NULL,
		total_bonus_pct NUMERIC(6,2),
		district        VARCHAR(32) NOT NULL DEFAULT '',
		section         VARCHAR(64) NOT NULL DEFAULT '',
		subsection      VARCHAR(64) NOT NULL DEFAULT '',
		parcel_no       VARCHAR(32) NOT NULL DEFAULT '',
		address         VARCHAR(256) NOT NULL DEFAULT '',
		approved_date   DATE,
		site_area_sqm   NUMERIC(12,2),
		site_area_ping  NUMERIC(12,2),
		raw             JSONB NOT NULL DEFAULT '{}',
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (source, case_no)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_renewal_cases_approved
		ON renewal_cases (approved_date)`,

	`CREATE TABLE IF NOT EXISTS renewal_bonuses (
		id         BIGSERIAL PRIMARY KEY,
		case_id    BIGINT NOT NULL REFERENCES renewal_cases(id) ON DELETE CASCADE,
		code       VARCHAR(32) NOT NULL,
		bonus_pct  NUMERIC(6,2) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (case_id, code)
	)`,

	`CREATE TABLE IF NOT EXISTS wre_approvals (
		id             BIGSERIAL PRIMARY KEY,
		approve_date   DATE,
		district       VARCHAR(32) NOT NULL DEFAULT '',
		section        VARCHAR(64) NOT NULL DEFAULT '',
		subsection     VARCHAR(64) NOT NULL DEFAULT '',
		parcel_no      VARCHAR(32) NOT NULL DEFAULT '',
		address        VARCHAR(256) NOT NULL DEFAULT '',
		site_area_sqm  NUMERIC(12,2),
		site_area_ping NUMERIC(12,2),
		raw            JSONB NOT NULL DEFAULT '{}',
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_wre_approvals_parcel_key
		ON wre_approvals (district, section, subsection, parcel_no)`,

	`CREATE TABLE IF NOT EXISTS wre_permit_matches (
		id         BIGSERIAL PRIMARY KEY,
		wre_id     BIGINT NOT NULL REFERENCES wre_approvals(id) ON DELETE CASCADE,
		permit_id  BIGINT NOT NULL REFERENCES building_permits(id) ON DELETE CASCADE,
		match_type VARCHAR(32) NOT NULL,
		rule_ok    BOOLEAN NOT NULL DEFAULT true,
		notes      TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (wre_id, permit_id, match_type)
	)`,
}
