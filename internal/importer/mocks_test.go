package importer

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/stwalsh4118/permithub/internal/models"
)

// MockPermitRepository is a mock implementation of PermitRepository for testing
type MockPermitRepository struct {
	mock.Mock
}

func (m *MockPermitRepository) Save(ctx context.Context, rec *models.BuildingPermit, children models.PermitChildren, upsert bool) (bool, error) {
	args := m.Called(ctx, rec, children, upsert)
	return args.Bool(0), args.Error(1)
}

func (m *MockPermitRepository) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockPermitRepository) FindByPermitNo(ctx context.Context, permitNo string) (*models.BuildingPermit, error) {
	args := m.Called(ctx, permitNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BuildingPermit), args.Error(1)
}

func (m *MockPermitRepository) FindIDsByParcelKey(ctx context.Context, district, section, subsection, parcelNo string, limit int) ([]int64, error) {
	args := m.Called(ctx, district, section, subsection, parcelNo, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockPermitRepository) FindIDsByLocationContains(ctx context.Context, key string, limit int) ([]int64, error) {
	args := m.Called(ctx, key, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// MockUsePermitRepository is a mock implementation of UsePermitRepository for testing
type MockUsePermitRepository struct {
	mock.Mock
}

func (m *MockUsePermitRepository) Save(ctx context.Context, rec *models.UsePermit, children models.UsePermitChildren, upsert bool) (bool, error) {
	args := m.Called(ctx, rec, children, upsert)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsePermitRepository) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockRenewalRepository is a mock implementation of RenewalRepository for testing
type MockRenewalRepository struct {
	mock.Mock
}

func (m *MockRenewalRepository) Save(ctx context.Context, rec *models.RenewalCase, bonuses []models.RenewalBonus) (bool, error) {
	args := m.Called(ctx, rec, bonuses)
	return args.Bool(0), args.Error(1)
}

func (m *MockRenewalRepository) Clear(ctx context.Context, source string) error {
	args := m.Called(ctx, source)
	return args.Error(0)
}

// MockWreRepository is a mock implementation of WreRepository for testing
type MockWreRepository struct {
	mock.Mock
}

func (m *MockWreRepository) Save(ctx context.Context, rec *models.WreApproval) (bool, error) {
	args := m.Called(ctx, rec)
	return args.Bool(0), args.Error(1)
}

func (m *MockWreRepository) List(ctx context.Context, limit int) ([]models.WreApproval, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WreApproval), args.Error(1)
}

// MockMatchRepository is a mock implementation of MatchRepository for testing
type MockMatchRepository struct {
	mock.Mock
}

func (m *MockMatchRepository) Create(ctx context.Context, match *models.WrePermitMatch) (bool, error) {
	args := m.Called(ctx, match)
	return args.Bool(0), args.Error(1)
}
