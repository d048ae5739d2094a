package importer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/permithub/internal/logger"
	"github.com/stwalsh4118/permithub/internal/models"
)

const wreCSVHeader = "approve_date,district,section,subsection,parcel_no,address,site_area_sqm,site_area_ping\n"

func TestWreCSVImport_RowMapping(t *testing.T) {
	// Arrange
	mockRepo := new(MockWreRepository)
	im := NewWreCSVImporter(mockRepo, logger.New("test"))
	ctx := context.Background()

	csvText := wreCSVHeader +
		"2022-05-11,大安區,大安段,一小段,292-1,臺北市大安區和平東路100號,661.157,\n"

	var saved *models.WreApproval
	mockRepo.On("Save", ctx, mock.Anything).
		Run(func(args mock.Arguments) {
			saved = args.Get(1).(*models.WreApproval)
		}).
		Return(true, nil).Once()

	// Act
	stats, err := im.runReader(ctx, strings.NewReader(csvText), Options{})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Created)
	mockRepo.AssertExpectations(t)

	require.NotNil(t, saved)
	require.NotNil(t, saved.ApproveDate)
	assert.Equal(t, time.Date(2022, 5, 11, 0, 0, 0, 0, time.UTC), *saved.ApproveDate)
	assert.Equal(t, "大安區", saved.District)
	assert.Equal(t, "大安段", saved.Section)
	assert.Equal(t, "一小段", saved.Subsection)
	assert.Equal(t, "292-0001", saved.ParcelNo)
	assert.Equal(t, "臺北市大安區和平東路100號", saved.Address)

	// ping derived from sqm when the source leaves it blank
	require.NotNil(t, saved.SiteAreaPing)
	assert.Equal(t, "200", saved.SiteAreaPing.String())

	assert.Equal(t, "大安區", saved.Raw["district"])
}

func TestWreCSVImport_KeepsProvidedPing(t *testing.T) {
	// Arrange
	mockRepo := new(MockWreRepository)
	im := NewWreCSVImporter(mockRepo, logger.New("test"))
	ctx := context.Background()

	csvText := wreCSVHeader +
		"2022-05-11,大安區,大安段,一小段,292,和平東路100號,661.157,123.45\n"

	var saved *models.WreApproval
	mockRepo.On("Save", ctx, mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*models.WreApproval) }).
		Return(true, nil).Once()

	// Act
	_, err := im.runReader(ctx, strings.NewReader(csvText), Options{})

	// Assert
	require.NoError(t, err)
	require.NotNil(t, saved.SiteAreaPing)
	assert.Equal(t, "123.45", saved.SiteAreaPing.String())
}

func TestWreCSVImport_SkipsRowWithNoAnchor(t *testing.T) {
	// Arrange
	mockRepo := new(MockWreRepository)
	im := NewWreCSVImporter(mockRepo, logger.New("test"))
	ctx := context.Background()

	// no date, no address, no parcel: nothing to key on
	csvText := wreCSVHeader +
		",大安區,大安段,一小段,,,100.0,\n" +
		"2022-05-11,大安區,,,,,,\n"

	mockRepo.On("Save", ctx, mock.Anything).Return(true, nil).Once()

	// Act
	stats, err := im.runReader(ctx, strings.NewReader(csvText), Options{})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.Created)
	mockRepo.AssertExpectations(t)
}

func TestWreCSVImport_DryRun(t *testing.T) {
	// Arrange
	mockRepo := new(MockWreRepository)
	im := NewWreCSVImporter(mockRepo, logger.New("test"))

	csvText := wreCSVHeader +
		"2022-05-11,大安區,大安段,一小段,292,和平東路100號,100.0,\n"

	// Act
	stats, err := im.runReader(context.Background(), strings.NewReader(csvText), Options{DryRun: true})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Created)
	mockRepo.AssertNotCalled(t, "Save")
}
