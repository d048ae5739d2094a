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

// permitRecordTag is the element that wraps one permit in the export.
const permitRecordTag = "Data"

// PermitXMLImporter streams building-permit records out of the XML export
// and persists them one transaction per record.
type PermitXMLImporter struct {
	repo repository.PermitRepository
	log  *logger.Logger
}

// NewPermitXMLImporter creates a new instance of PermitXMLImporter.
func NewPermitXMLImporter(repo repository.PermitRepository, log *logger.Logger) *PermitXMLImporter {
	return &PermitXMLImporter{repo: repo, log: log}
}

// Run imports the file named in opts and returns the run summary. A failed
// record is counted and logged, never fatal; only opening the file, the
// pre-run clear and a malformed document abort the run.
func (im *PermitXMLImporter) Run(ctx context.Context, opts Options) (*Stats, error) {
	f, err := os.Open(opts.File)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.File, err)
	}
	defer f.Close()
	return im.runReader(ctx, f, opts)
}

func (im *PermitXMLImporter) runReader(ctx context.Context, r io.Reader, opts Options) (*Stats, error) {
	log := im.log.WithRun(uuid.New().String())
	log.Info("Starting building-permit import", map[string]interface{}{
		"file":    opts.File,
		"clear":   opts.Clear,
		"dry_run": opts.DryRun,
		"limit":   opts.Limit,
		"upsert":  opts.Upsert,
	})

	if opts.Clear && !opts.DryRun {
		if err := im.repo.Clear(ctx); err != nil {
			return nil, fmt.Errorf("clear building permits: %w", err)
		}
		log.Info("Cleared building permits", nil)
	}

	stats := &Stats{}
	err := xmlstream.EachRecord(r, permitRecordTag, func(node *models.RawNode) error {
		if opts.Limit > 0 && stats.Processed >= opts.Limit {
			return xmlstream.ErrStop
		}
		stats.Processed++

		permitNo := normalize.CleanWS(node.ChildText("執照號碼"))
		if permitNo == "" {
			stats.Skipped++
			log.Debug("Skipping record without permit number", map[string]interface{}{
				"seq": stats.Processed,
			})
			return nil
		}

		rec, children := buildPermit(permitNo, node)
		rec.Clip()
		children.Clip()

		if opts.DryRun {
			stats.Created++
			return nil
		}

		created, err := im.repo.Save(ctx, rec, children, opts.Upsert)
		if err != nil {
			recErr := &apperrors.RecordError{Seq: stats.Processed, Key: permitNo, Err: err}
			stats.fail(recErr.Error())
			log.Warn("Failed to save building permit", map[string]interface{}{
				"seq":       stats.Processed,
				"permit_no": permitNo,
				"error":     err.Error(),
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
		return stats, fmt.Errorf("read permit xml: %w", err)
	}

	log.Info("Building-permit import finished", stats.Fields())
	return stats, nil
}

// buildPermit maps one archival record node onto the permit model and its
// child collections.
func buildPermit(permitNo string, node *models.RawNode) (*models.BuildingPermit, models.PermitChildren) {
	txt := func(tag string) string { return normalize.CleanWS(node.ChildText(tag)) }

	landText := txt("地段地號")
	land := normalize.ParseLandText(landText)

	rec := &models.BuildingPermit{
		PermitNo:   permitNo,
		PermitYear: txt("執照年度"),
		IssueDate:  normalize.ParseROCDate(txt("發照日期")),

		BuildType: txt("建造類別"),
		Structure: txt("構造種類"),
		Zoning:    txt("使用分區"),

		Location:     txt("建築地點"),
		LandText:     landText,
		BuildingInfo: txt("建物資訊"),
		Summary:      txt("建築概要"),

		Section:    land.Section,
		Subsection: land.Subsection,
		ParcelNo:   land.ParcelNo,

		BuildingAreaSqm:   normalize.ParseDecimal(txt("建築面積")),
		ArcadeSiteAreaSqm: normalize.ParseDecimal(txt("騎樓基地面積")),
		OtherSiteAreaSqm:  normalize.ParseDecimal(txt("其他基地面積")),

		BuildDeadline: txt("建築期限"),
		ProjectCost:   normalize.ParseInt64(txt("工程金額")),

		Owner:      txt("起造人"),
		Designer:   txt("設計人"),
		Supervisor: txt("監造人"),

		MiscWorks:     txt("雜項工作物"),
		ApplicableLaw: txt("適用法令概要"),
		Notes:         txt("注意事項"),

		Raw: node,
	}

	if info := node.Child("建物資訊"); info != nil {
		rec.BuildingCount = normalize.ParseCount(info.ChildText("棟數"))
		rec.BlockCount = normalize.ParseCount(info.ChildText("幢數"))
		rec.FloorsAbove = normalize.ParseCount(info.ChildText("地上層數"))
		rec.FloorsBelow = normalize.ParseCount(info.ChildText("地下層數"))
		rec.UnitCount = normalize.ParseCount(info.ChildText("戶數"))
	}

	children := models.PermitChildren{
		Addresses: childTexts(node, "建築地點", "地址"),
		Parcels:   childTexts(node, "地段地號", "地段號"),
		Floors:    childTexts(node, "建築概要", "樓層"),
		MiscItems: childTexts(node, "雜項工作物", "說明"),
		NoteItems: childTexts(node, "注意事項", "備註說明"),
	}
	return rec, children
}

// childTexts collects the non-blank texts of group/item elements in
// document order.
func childTexts(node *models.RawNode, group, item string) []string {
	g := node.Child(group)
	if g == nil {
		return nil
	}
	var out []string
	for _, c := range g.ChildAll(item) {
		if t := normalize.CleanWS(c.Text); t != "" {
			out = append(out, t)
		}
	}
	return out
}
