package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/permithub/internal/logger"
	"github.com/stwalsh4118/permithub/internal/models"
)

const usePermitXMLRich = `<Root>
  <Data>
    <執照年度>111</執照年度>
    <執照號碼>111使字第0456號</執照號碼>
    <發照日期>111/08/20</發照日期>
    <原核發執照>108建字第099號</原核發執照>
    <承造人>大成營造</承造人>
    <建物高度>42.5</建物高度>
    <建物資訊>
      <棟數>1</棟數>
      <地上層數>10</地上層數>
    </建物資訊>
    <建物面積>
      <建築面積>512.33</建築面積>
      <法定空地面積>88.10</法定空地面積>
      <地上避難面積>12.00</地上避難面積>
    </建物面積>
    <停車空間>
      <停車空間說明>平面式 20 輛</停車空間說明>
      <停車空間說明>機械式 8 輛</停車空間說明>
    </停車空間>
    <雜項工作物>
      <說明>圍牆及駁坎</說明>
    </雜項工作物>
    <變更概要>
      <核准文號 變使准="111核字第1號" 變使竣工="111竣字第2號"/>
      <核准文號 變使准="111核字第3號"/>
      <核准文號/>
    </變更概要>
  </Data>
</Root>`

func TestUsePermitImport_FieldMapping(t *testing.T) {
	// Arrange
	mockRepo := new(MockUsePermitRepository)
	im := NewUsePermitXMLImporter(mockRepo, logger.New("test"))
	ctx := context.Background()

	var saved *models.UsePermit
	var savedChildren models.UsePermitChildren
	mockRepo.On("Save", ctx, mock.Anything, mock.Anything, true).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*models.UsePermit)
			savedChildren = args.Get(2).(models.UsePermitChildren)
		}).
		Return(true, nil).Once()

	// Act
	stats, err := im.runReader(ctx, strings.NewReader(usePermitXMLRich), Options{Upsert: true})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Created)
	mockRepo.AssertExpectations(t)

	require.NotNil(t, saved)
	assert.Equal(t, "111", saved.PermitYear)
	assert.Equal(t, "111使字第0456號", saved.PermitNo)
	// date fields stay verbatim on this path
	assert.Equal(t, "111/08/20", saved.IssueDateText)
	assert.Equal(t, "108建字第099號", saved.OriginalPermitNo)
	assert.Equal(t, "大成營造", saved.Contractor)

	require.NotNil(t, saved.BuildingHeightM)
	assert.Equal(t, "42.5", saved.BuildingHeightM.String())
	require.NotNil(t, saved.FootprintAreaSqm)
	assert.Equal(t, "512.33", saved.FootprintAreaSqm.String())
	require.NotNil(t, saved.LegalOpenSpaceSqm)
	assert.Equal(t, "88.1", saved.LegalOpenSpaceSqm.String())
	assert.Nil(t, saved.ArcadeSiteAreaSqm)

	require.NotNil(t, saved.FloorsAbove)
	assert.Equal(t, 10, *saved.FloorsAbove)
	assert.Nil(t, saved.FloorsBelow)

	assert.Equal(t, []string{"平面式 20 輛", "機械式 8 輛"}, savedChildren.Parkings)
	assert.Equal(t, "圍牆及駁坎", savedChildren.MiscWorkDesc)

	// the attribute-less element contributes nothing
	require.Len(t, savedChildren.ChangeApprovals, 2)
	assert.Equal(t, models.ChangeApproval{
		ApprovalText:   "111核字第1號",
		CompletionText: "111竣字第2號",
	}, savedChildren.ChangeApprovals[0])
	assert.Equal(t, models.ChangeApproval{
		ApprovalText: "111核字第3號",
	}, savedChildren.ChangeApprovals[1])
}

func TestUsePermitImport_SkipsWhenEitherKeyHalfMissing(t *testing.T) {
	// Arrange
	mockRepo := new(MockUsePermitRepository)
	im := NewUsePermitXMLImporter(mockRepo, logger.New("test"))
	ctx := context.Background()

	xml := `<Root>
	  <Data><執照號碼>只有號碼</執照號碼></Data>
	  <Data><執照年度>111</執照年度></Data>
	  <Data><執照年度>111</執照年度><執照號碼>完整</執照號碼></Data>
	</Root>`

	mockRepo.On("Save", ctx, mock.Anything, mock.Anything, false).Return(true, nil).Once()

	// Act
	stats, err := im.runReader(ctx, strings.NewReader(xml), Options{})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, 1, stats.Created)
	mockRepo.AssertExpectations(t)
}

func TestUsePermitImport_DryRunNeverTouchesRepository(t *testing.T) {
	// Arrange
	mockRepo := new(MockUsePermitRepository)
	im := NewUsePermitXMLImporter(mockRepo, logger.New("test"))

	xml := `<Root><Data><執照年度>111</執照年度><執照號碼>A</執照號碼></Data></Root>`

	// Act
	stats, err := im.runReader(context.Background(), strings.NewReader(xml), Options{DryRun: true, Clear: true})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Created)
	mockRepo.AssertNotCalled(t, "Save")
	mockRepo.AssertNotCalled(t, "Clear")
}
