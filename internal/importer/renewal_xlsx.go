package importer

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	apperrors "github.com/stwalsh4118/permithub/internal/errors"
	"github.com/stwalsh4118/permithub/internal/logger"
	"github.com/stwalsh4118/permithub/internal/models"
	"github.com/stwalsh4118/permithub/internal/normalize"
	"github.com/stwalsh4118/permithub/internal/repository"
)

// bonusColumns maps workbook column names to bonus codes, in the order
// bonus rows are emitted.
var bonusColumns = []struct {
	column string
	code   string
}{
	{"bonus_structure_eval_pct", models.BonusStructure},
	{"bonus_seismic_pct", models.BonusSeismic},
	{"bonus_green_pct", models.BonusGreen},
	{"bonus_smart_pct", models.BonusSmart},
	{"bonus_accessible_pct", models.BonusBarrierFree},
	{"bonus_public_facility_donation_pct", models.BonusDonation},
	{"bonus_schedule_scale_pct", models.BonusSchedule},
	{"bonus_setback_pct", models.BonusOther},
}

// RenewalXLSXImporter ingests the curated urban-renewal workbook where
// columns are named in the first row, including per-category bonus
// percentages.
type RenewalXLSXImporter struct {
	repo repository.RenewalRepository
	log  *logger.Logger
}

// NewRenewalXLSXImporter creates a new instance of RenewalXLSXImporter.
func NewRenewalXLSXImporter(repo repository.RenewalRepository, log *logger.Logger) *RenewalXLSXImporter {
	return &RenewalXLSXImporter{repo: repo, log: log}
}

// Run imports the workbook named in opts and returns the run summary.
// Rows without an integral case_seq are skipped; everything else degrades
// to "no value" per field.
func (im *RenewalXLSXImporter) Run(ctx context.Context, opts Options) (*Stats, error) {
	log := im.log.WithRun(uuid.New().String())
	log.Info("Starting urban-renewal XLSX import", map[string]interface{}{
		"file":    opts.File,
		"clear":   opts.Clear,
		"dry_run": opts.DryRun,
		"limit":   opts.Limit,
	})

	wb, err := excelize.OpenFile(opts.File)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.File, err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s has no sheets", opts.File)
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		log.Warn("Workbook sheet is empty", map[string]interface{}{"sheet": sheets[0]})
		return &Stats{}, nil
	}

	header := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		header[normalize.CleanWS(name)] = i
	}

	if opts.Clear && !opts.DryRun {
		if err := im.repo.Clear(ctx, models.SourceTaipeiUR); err != nil {
			return nil, fmt.Errorf("clear renewal cases: %w", err)
		}
		log.Info("Cleared renewal cases", map[string]interface{}{"source": models.SourceTaipeiUR})
	}

	stats := &Stats{}
	for _, row := range rows[1:] {
		if opts.Limit > 0 && stats.Processed >= opts.Limit {
			break
		}

		cell := func(name string) string {
			idx, ok := header[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return normalize.CleanWS(row[idx])
		}

		caseNo, err := strconv.Atoi(cell("case_seq"))
		if err != nil {
			stats.Skipped++
			continue
		}
		stats.Processed++

		landText := cell("parcel")
		land := normalize.ParseLandText(landText)

		rec := &models.RenewalCase{
			Source:        models.SourceTaipeiUR,
			CaseNo:        caseNo,
			District:      cell("district"),
			Address:       cell("address"),
			ApprovedDate:  normalize.ParseROCDate(cell("approved_date")),
			SiteAreaSqm:   normalize.ParseDecimal(cell("site_area_sqm")),
			TotalBonusPct: normalize.ParseDecimal(cell("total_bonus_pct_num")),
			Section:       land.Section,
			Subsection:    land.Subsection,
			ParcelNo:      land.ParcelNo,
			Raw: models.CaseRaw{
				Fields:   rowFields(rows[0], row),
				Note:     cell("note"),
				LandText: landText,
			},
		}
		if rec.SiteAreaSqm != nil {
			ping := normalize.SqmToPing(*rec.SiteAreaSqm)
			rec.SiteAreaPing = &ping
		}
		rec.Clip()

		var bonuses []models.RenewalBonus
		for _, bc := range bonusColumns {
			if pct := normalize.ParseDecimal(cell(bc.column)); pct != nil {
				bonuses = append(bonuses, models.RenewalBonus{Code: bc.code, BonusPct: *pct})
			}
		}

		if opts.DryRun {
			stats.Created++
			continue
		}

		created, err := im.repo.Save(ctx, rec, bonuses)
		if err != nil {
			recErr := &apperrors.RecordError{Seq: stats.Processed, Key: strconv.Itoa(caseNo), Err: err}
			stats.fail(recErr.Error())
			log.Warn("Failed to save renewal case", map[string]interface{}{
				"seq":     stats.Processed,
				"case_no": caseNo,
				"error":   err.Error(),
			})
			continue
		}
		if created {
			stats.Created++
		} else {
			stats.Updated++
		}
	}

	log.Info("Urban-renewal XLSX import finished", stats.Fields())
	return stats, nil
}

// rowFields archives the non-blank cells of a row keyed by header name.
func rowFields(header, row []string) map[string]string {
	fields := make(map[string]string, len(row))
	for i, v := range row {
		if i >= len(header) {
			break
		}
		name := normalize.CleanWS(header[i])
		val := normalize.CleanWS(v)
		if name == "" || val == "" {
			continue
		}
		fields[name] = val
	}
	return fields
}
