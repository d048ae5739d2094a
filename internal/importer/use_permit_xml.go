package importer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	apperrors "github.com/stwalsh4118/permithub/internal/errors"
	"github.com/stwalsh4118/permithub/internal/logger"
	"github.com/stwalsh4118/permithub/internal/models"
	"github.com/stwalsh4118/permithub/internal/normalize"
	"github.com/stwalsh4118/permithub/internal/repository"
	"github.com/stwalsh4118/permithub/internal/xmlstream"
)

// UsePermitXMLImporter streams occupancy-permit records out of the XML
// export. The natural key is the (permit_year, permit_no) pair; records
// missing either half are skipped rather than guessed at.
type UsePermitXMLImporter struct {
	repo repository.UsePermitRepository
	log  *logger.Logger
}

// NewUsePermitXMLImporter creates a new instance of UsePermitXMLImporter.
func NewUsePermitXMLImporter(repo repository.UsePermitRepository, log *logger.Logger) *UsePermitXMLImporter {
	return &UsePermitXMLImporter{repo: repo, log: log}
}

// Run imports the file named in opts and returns the run summary.
func (im *UsePermitXMLImporter) Run(ctx context.Context, opts Options) (*Stats, error) {
	f, err := os.Open(opts.File)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.File, err)
	}
	defer f.Close()
	return im.runReader(ctx, f, opts)
}

func (im *UsePermitXMLImporter) runReader(ctx context.Context, r io.Reader, opts Options) (*Stats, error) {
	log := im.log.WithRun(uuid.New().String())
	log.Info("Starting use-permit import", map[string]interface{}{
		"file":    opts.File,
		"clear":   opts.Clear,
		"dry_run": opts.DryRun,
		"limit":   opts.Limit,
		"upsert":  opts.Upsert,
	})

	if opts.Clear && !opts.DryRun {
		if err := im.repo.Clear(ctx); err != nil {
			return nil, fmt.Errorf("clear use permits: %w", err)
		}
		log.Info("Cleared use permits", nil)
	}

	stats := &Stats{}
	err := xmlstream.EachRecord(r, permitRecordTag, func(node *models.RawNode) error {
		if opts.Limit > 0 && stats.Processed >= opts.Limit {
			return xmlstream.ErrStop
		}
		stats.Processed++

		permitYear := normalize.CleanWS(node.ChildText("執照年度"))
		permitNo := normalize.CleanWS(node.ChildText("執照號碼"))
		if permitYear == "" || permitNo == "" {
			stats.Skipped++
			return nil
		}

		rec, children := buildUsePermit(permitYear, permitNo, node)
		rec.Clip()
		children.Clip()

		if opts.DryRun {
			stats.Created++
			return nil
		}

		created, err := im.repo.Save(ctx, rec, children, opts.Upsert)
		if err != nil {
			key := permitYear + "/" + permitNo
			recErr := &apperrors.RecordError{Seq: stats.Processed, Key: key, Err: err}
			stats.fail(recErr.Error())
			log.Warn("Failed to save use permit", map[string]interface{}{
				"seq":         stats.Processed,
				"permit_year": permitYear,
				"permit_no":   permitNo,
				"error":       err.Error(),
			})
			return nil
		}
		if created {
			stats.Created++
		} else {
			stats.Updated++
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("read use-permit xml: %w", err)
	}

	log.Info("Use-permit import finished", stats.Fields())
	return stats, nil
}

// buildUsePermit maps one archival record node onto the use-permit model
// and its child collections.
func buildUsePermit(permitYear, permitNo string, node *models.RawNode) (*models.UsePermit, models.UsePermitChildren) {
	txt := func(tag string) string { return normalize.CleanWS(node.ChildText(tag)) }

	rec := &models.UsePermit{
		PermitYear: permitYear,
		PermitNo:   permitNo,

		IssueDateText:    txt("發照日期"),
		OriginalPermitNo: txt("原核發執照"),
		Designer:         txt("設計人"),
		Supervisor:       txt("監造人"),
		Contractor:       txt("承造人"),
		BuildType:        txt("建造類別"),
		StructureType:    txt("構造種類"),
		Zoning:           txt("使用分區"),

		BuildingHeightM: normalize.ParseDecimal(txt("建物高度")),

		ProjectCostText:    txt("工程金額"),
		CompletionDateText: txt("竣工日期"),
		StartDateText:      txt("開工日期"),
		LawSummary:         txt("適用法令概要"),
		ChangeSummaryText:  txt("變更概要"),

		Raw: node,
	}

	if info := node.Child("建物資訊"); info != nil {
		rec.BuildingCount = normalize.ParseCount(info.ChildText("棟數"))
		rec.BlockCount = normalize.ParseCount(info.ChildText("幢數"))
		rec.FloorsAbove = normalize.ParseCount(info.ChildText("地上層數"))
		rec.FloorsBelow = normalize.ParseCount(info.ChildText("地下層數"))
		rec.UnitCount = normalize.ParseCount(info.ChildText("戶數"))
	}

	if area := node.Child("建物面積"); area != nil {
		rec.ArcadeSiteAreaSqm = normalize.ParseDecimal(normalize.CleanWS(area.ChildText("騎樓基地面積")))
		rec.OtherSiteAreaSqm = normalize.ParseDecimal(normalize.CleanWS(area.ChildText("其他基地面積")))
		rec.FootprintAreaSqm = normalize.ParseDecimal(normalize.CleanWS(area.ChildText("建築面積")))
		rec.LegalOpenSpaceSqm = normalize.ParseDecimal(normalize.CleanWS(area.ChildText("法定空地面積")))
		rec.RefugeAreaAboveSqm = normalize.ParseDecimal(normalize.CleanWS(area.ChildText("地上避難面積")))
		rec.RefugeAreaBelowSqm = normalize.ParseDecimal(normalize.CleanWS(area.ChildText("地下避難面積")))
	}

	children := models.UsePermitChildren{
		Addresses: childTexts(node, "建築地點", "地址"),
		Parcels:   childTexts(node, "地段地號", "地段號"),
		Floors:    childTexts(node, "建築概要", "樓層"),
		Parkings:  childTexts(node, "停車空間", "停車空間說明"),
		Notes:     childTexts(node, "注意事項", "備註說明"),
	}

	if misc := node.Child("雜項工作物"); misc != nil {
		children.MiscWorkDesc = normalize.CleanWS(misc.ChildText("說明"))
	}

	if ch := node.Child("變更概要"); ch != nil {
		for _, ap := range ch.ChildAll("核准文號") {
			approval := normalize.CleanWS(ap.Attr("變使准"))
			completion := normalize.CleanWS(ap.Attr("變使竣工"))
			if approval != "" || completion != "" {
				children.ChangeApprovals = append(children.ChangeApprovals, models.ChangeApproval{
					ApprovalText:   approval,
					CompletionText: completion,
				})
			}
		}
	}

	return rec, children
}
