package importer

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/stwalsh4118/permithub/internal/logger"
	"github.com/stwalsh4118/permithub/internal/models"
	"github.com/stwalsh4118/permithub/internal/repository"
)

// Fan-out caps per approval and the minimum address key length for the
// containment fallback. Shorter keys match half the city.
const (
	exactMatchCap   = 20
	addressMatchCap = 10
	minAddressRunes = 6
)

// Matcher links WRE approvals to building permits. The exact cadastral
// rule requires all four key parts; the address-containment fallback is
// opt-in, capped, and written with rule_ok=false for manual review.
type Matcher struct {
	wres    repository.WreRepository
	permits repository.PermitRepository
	matches repository.MatchRepository
	log     *logger.Logger
}

// NewMatcher creates a new instance of Matcher.
func NewMatcher(wres repository.WreRepository, permits repository.PermitRepository, matches repository.MatchRepository, log *logger.Logger) *Matcher {
	return &Matcher{wres: wres, permits: permits, matches: matches, log: log}
}

// Run walks the approvals in id order and records matches idempotently:
// re-running never duplicates a (wre, permit, type) row.
func (m *Matcher) Run(ctx context.Context, opts MatchOptions) (*MatchStats, error) {
	log := m.log.WithRun(uuid.New().String())
	log.Info("Starting WRE-to-permit matching", map[string]interface{}{
		"limit":       opts.Limit,
		"dry_run":     opts.DryRun,
		"use_address": opts.UseAddress,
	})

	approvals, err := m.wres.List(ctx, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("list wre approvals: %w", err)
	}

	stats := &MatchStats{}
	for i := range approvals {
		w := &approvals[i]
		stats.Processed++

		matched, err := m.matchExact(ctx, w, opts.DryRun, stats)
		if err != nil {
			return stats, err
		}

		if !matched && opts.UseAddress && utf8.RuneCountInString(w.Address) >= minAddressRunes {
			matched, err = m.matchByAddress(ctx, w, opts.DryRun, stats)
			if err != nil {
				return stats, err
			}
		}

		if !matched {
			stats.SkippedSources++
		}
	}

	log.Info("WRE-to-permit matching finished", stats.Fields())
	return stats, nil
}

// matchExact links by full cadastral key equality. All four parts must be
// present; a partial key is never trusted.
func (m *Matcher) matchExact(ctx context.Context, w *models.WreApproval, dryRun bool, stats *MatchStats) (bool, error) {
	if w.District == "" || w.Section == "" || w.Subsection == "" || w.ParcelNo == "" {
		return false, nil
	}

	ids, err := m.permits.FindIDsByParcelKey(ctx, w.District, w.Section, w.Subsection, w.ParcelNo, exactMatchCap)
	if err != nil {
		return false, fmt.Errorf("find permits by parcel key for wre %d: %w", w.ID, err)
	}
	if len(ids) == 0 {
		return false, nil
	}

	for _, pid := range ids {
		if dryRun {
			stats.CreatedMatches++
			continue
		}
		created, err := m.matches.Create(ctx, &models.WrePermitMatch{
			WreID:     w.ID,
			PermitID:  pid,
			MatchType: models.MatchExact,
			RuleOK:    true,
			Notes:     "exact match",
		})
		if err != nil {
			return false, fmt.Errorf("create exact match wre=%d permit=%d: %w", w.ID, pid, err)
		}
		if created {
			stats.CreatedMatches++
		}
	}
	return true, nil
}

// matchByAddress links by location containment. Low confidence: matches
// are flagged rule_ok=false for manual review.
func (m *Matcher) matchByAddress(ctx context.Context, w *models.WreApproval, dryRun bool, stats *MatchStats) (bool, error) {
	ids, err := m.permits.FindIDsByLocationContains(ctx, w.Address, addressMatchCap)
	if err != nil {
		return false, fmt.Errorf("find permits by location for wre %d: %w", w.ID, err)
	}
	if len(ids) == 0 {
		return false, nil
	}

	for _, pid := range ids {
		if dryRun {
			stats.CreatedMatches++
			continue
		}
		created, err := m.matches.Create(ctx, &models.WrePermitMatch{
			WreID:     w.ID,
			PermitID:  pid,
			MatchType: models.MatchAddress,
			RuleOK:    false,
			Notes:     "address fallback (needs review)",
		})
		if err != nil {
			return false, fmt.Errorf("create address match wre=%d permit=%d: %w", w.ID, pid, err)
		}
		if created {
			stats.CreatedMatches++
		}
	}
	return true, nil
}
