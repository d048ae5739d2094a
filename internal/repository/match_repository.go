package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/permithub/internal/database"
	"github.com/stwalsh4118/permithub/internal/models"
)

// MatchRepository persists WRE-to-permit match rows. Creation is
// idempotent per (wre, permit, match_type).
type MatchRepository interface {
	// Create inserts the match if it does not already exist and reports
	// whether a row was written.
	Create(ctx context.Context, m *models.WrePermitMatch) (created bool, err error)
}

type matchRepository struct {
	db *database.Database
}

// NewMatchRepository creates a new instance of MatchRepository.
func NewMatchRepository(db *database.Database) MatchRepository {
	return &matchRepository{db: db}
}

func (r *matchRepository) Create(ctx context.Context, m *models.WrePermitMatch) (bool, error) {
	const query = `
		INSERT INTO wre_permit_matches (wre_id, permit_id, match_type, rule_ok, notes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (wre_id, permit_id, match_type) DO NOTHING
		RETURNING id`

	var id int64
	err := r.db.Pool.QueryRow(ctx, query, m.WreID, m.PermitID, m.MatchType, m.RuleOK, m.Notes).Scan(&id)
	if err != nil {
		// DO NOTHING suppresses the RETURNING row for existing matches
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("create match wre=%d permit=%d: %w", m.WreID, m.PermitID, err)
	}
	m.ID = id
	return true, nil
}
