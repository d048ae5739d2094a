package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	apperrors "github.com/stwalsh4118/permithub/internal/errors"
	"github.com/stwalsh4118/permithub/internal/logger"
	"github.com/stwalsh4118/permithub/internal/models"
	"github.com/stwalsh4118/permithub/internal/normalize"
	"github.com/stwalsh4118/permithub/internal/repository"
)

// WreCSVImporter ingests the curated reconstruction-approval CSV. Columns
// are named in the header row and dates are ISO-formatted; rows carrying
// neither a date, an address nor a parcel number are skipped.
type WreCSVImporter struct {
	repo repository.WreRepository
	log  *logger.Logger
}

// NewWreCSVImporter creates a new instance of WreCSVImporter.
func NewWreCSVImporter(repo repository.WreRepository, log *logger.Logger) *WreCSVImporter {
	return &WreCSVImporter{repo: repo, log: log}
}

// Run imports the file named in opts and returns the run summary.
func (im *WreCSVImporter) Run(ctx context.Context, opts Options) (*Stats, error) {
	f, err := os.Open(opts.File)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.File, err)
	}
	defer f.Close()
	return im.runReader(ctx, f, opts)
}

func (im *WreCSVImporter) runReader(ctx context.Context, r io.Reader, opts Options) (*Stats, error) {
	log := im.log.WithRun(uuid.New().String())
	log.Info("Starting WRE approval import", map[string]interface{}{
		"file":    opts.File,
		"dry_run": opts.DryRun,
	})

	reader := csv.NewReader(stripBOM(r))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Stats{}, nil
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[normalize.CleanWS(name)] = i
	}

	stats := &Stats{}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("read csv row: %w", err)
		}
		stats.Processed++

		cell := func(name string) string {
			idx, ok := colIdx[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return normalize.CleanWS(row[idx])
		}

		rec := &models.WreApproval{
			ApproveDate: normalize.ParseISODate(cell("approve_date")),
			District:    cell("district"),
			Section:     cell("section"),
			Subsection:  cell("subsection"),
			ParcelNo:    normalize.NormParcelNo(cell("parcel_no")),
			Address:     cell("address"),
			SiteAreaSqm: normalize.ParseDecimal(cell("site_area_sqm")),
			Raw:         rowFields(header, row),
		}
		rec.SiteAreaPing = normalize.ParseDecimal(cell("site_area_ping"))
		if rec.SiteAreaPing == nil && rec.SiteAreaSqm != nil {
			ping := normalize.SqmToPing(*rec.SiteAreaSqm)
			rec.SiteAreaPing = &ping
		}

		if rec.ApproveDate == nil && rec.Address == "" && rec.ParcelNo == "" {
			stats.Skipped++
			continue
		}
		rec.Clip()

		if opts.DryRun {
			stats.Created++
			continue
		}

		created, err := im.repo.Save(ctx, rec)
		if err != nil {
			recErr := &apperrors.RecordError{Seq: stats.Processed, Key: rec.Address, Err: err}
			stats.fail(recErr.Error())
			log.Warn("Failed to save WRE approval", map[string]interface{}{
				"seq":   stats.Processed,
				"error": err.Error(),
			})
			continue
		}
		if created {
			stats.Created++
		} else {
			stats.Updated++
		}
	}

	log.Info("WRE approval import finished", stats.Fields())
	return stats, nil
}
