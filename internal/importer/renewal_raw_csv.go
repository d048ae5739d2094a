package importer

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/google/uuid"

	apperrors "github.com/stwalsh4118/permithub/internal/errors"
	"github.com/stwalsh4118/permithub/internal/logger"
	"github.com/stwalsh4118/permithub/internal/models"
	"github.com/stwalsh4118/permithub/internal/realign"
	"github.com/stwalsh4118/permithub/internal/repository"
)

// RenewalRawCSVImporter ingests the PDF-extracted urban-renewal CSV whose
// column boundaries drift between rows. Rows the realignment parser does
// not recognize as case rows (headers, page furniture) pass by silently.
type RenewalRawCSVImporter struct {
	repo repository.RenewalRepository
	log  *logger.Logger
}

// NewRenewalRawCSVImporter creates a new instance of RenewalRawCSVImporter.
func NewRenewalRawCSVImporter(repo repository.RenewalRepository, log *logger.Logger) *RenewalRawCSVImporter {
	return &RenewalRawCSVImporter{repo: repo, log: log}
}

// Run imports the file named in opts and returns the run summary.
func (im *RenewalRawCSVImporter) Run(ctx context.Context, opts Options) (*Stats, error) {
	f, err := os.Open(opts.File)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.File, err)
	}
	defer f.Close()
	return im.runReader(ctx, f, opts)
}

func (im *RenewalRawCSVImporter) runReader(ctx context.Context, r io.Reader, opts Options) (*Stats, error) {
	log := im.log.WithRun(uuid.New().String())
	log.Info("Starting urban-renewal raw CSV import", map[string]interface{}{
		"file":    opts.File,
		"dry_run": opts.DryRun,
		"limit":   opts.Limit,
	})

	reader := csv.NewReader(stripBOM(r))
	reader.FieldsPerRecord = -1

	// header row
	if _, err := reader.Read(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	stats := &Stats{}
	for {
		cols, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("read csv row: %w", err)
		}

		row, ok := realign.ParseCaseRow(cols)
		if !ok {
			continue
		}

		if opts.Limit > 0 && stats.Processed >= opts.Limit {
			break
		}
		stats.Processed++

		rec := &models.RenewalCase{
			Source:        models.SourceTaipeiUR,
			CaseNo:        row.CaseNo,
			District:      row.District,
			Address:       row.Address,
			ApprovedDate:  row.ApprovedDate,
			SiteAreaSqm:   row.SiteAreaSqm,
			SiteAreaPing:  row.SiteAreaPing,
			TotalBonusPct: row.TotalBonusPct,
			Raw: models.CaseRaw{
				Cols:     row.Cols,
				Note:     row.Note,
				LandText: row.LandText,
			},
		}
		rec.Clip()

		if opts.DryRun {
			stats.Created++
			continue
		}

		created, err := im.repo.Save(ctx, rec, nil)
		if err != nil {
			recErr := &apperrors.RecordError{Seq: stats.Processed, Key: strconv.Itoa(row.CaseNo), Err: err}
			stats.fail(recErr.Error())
			log.Warn("Failed to save renewal case", map[string]interface{}{
				"seq":     stats.Processed,
				"case_no": row.CaseNo,
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

	log.Info("Urban-renewal raw CSV import finished", stats.Fields())
	return stats, nil
}

// stripBOM drops a leading UTF-8 byte-order mark; the municipal exports
// carry one.
func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		br.Discard(3)
	}
	return br
}
