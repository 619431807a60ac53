package handlers

import (
	"context"

	"github.com/hendrisulistya/asset-maintenance/internal/db"
	"github.com/hendrisulistya/asset-maintenance/internal/models"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// passthroughTx runs transaction bodies directly, no session involved.
type passthroughTx struct{}

func (passthroughTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// MockCategoryCollection is a mock implementation of CategoryCollection
type MockCategoryCollection struct {
	mock.Mock
}

func (m *MockCategoryCollection) InsertCategory(ctx context.Context, category models.AssetCategory) (primitive.ObjectID, error) {
	args := m.Called(ctx, category)
	return args.Get(0).(primitive.ObjectID), args.Error(1)
}

func (m *MockCategoryCollection) FindCategoryByID(ctx context.Context, id string) (*models.AssetCategory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AssetCategory), args.Error(1)
}

func (m *MockCategoryCollection) FindCategories(ctx context.Context) ([]models.AssetCategory, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AssetCategory), args.Error(1)
}

func (m *MockCategoryCollection) UpdateCategoryFrequency(ctx context.Context, id string, frequencyPerYear int) error {
	args := m.Called(ctx, id, frequencyPerYear)
	return args.Error(0)
}

// MockAssetCollection is a mock implementation of AssetCollection
type MockAssetCollection struct {
	mock.Mock
}

func (m *MockAssetCollection) InsertAsset(ctx context.Context, asset models.AssetItem) (primitive.ObjectID, error) {
	args := m.Called(ctx, asset)
	return args.Get(0).(primitive.ObjectID), args.Error(1)
}

func (m *MockAssetCollection) FindAssetByID(ctx context.Context, id string) (*models.AssetItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AssetItem), args.Error(1)
}

func (m *MockAssetCollection) FindAssets(ctx context.Context) ([]models.AssetItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AssetItem), args.Error(1)
}

func (m *MockAssetCollection) FindAssetsByCategory(ctx context.Context, categoryID string) ([]models.AssetItem, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AssetItem), args.Error(1)
}

func (m *MockAssetCollection) UpdateAssetStatus(ctx context.Context, id string, status models.AssetStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockAssetCollection) DeleteAsset(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockMaintenanceCollection is a mock implementation of MaintenanceCollection
type MockMaintenanceCollection struct {
	mock.Mock
}

func (m *MockMaintenanceCollection) InsertRecords(ctx context.Context, records []models.MaintenanceRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockMaintenanceCollection) FindRecordByID(ctx context.Context, id string) (*models.MaintenanceRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MaintenanceRecord), args.Error(1)
}

func (m *MockMaintenanceCollection) FindRecordsByAsset(ctx context.Context, assetItemID string) ([]models.MaintenanceRecord, error) {
	args := m.Called(ctx, assetItemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MaintenanceRecord), args.Error(1)
}

func (m *MockMaintenanceCollection) FindRecords(ctx context.Context, filter db.MaintenanceFilter) ([]models.MaintenanceRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MaintenanceRecord), args.Error(1)
}

func (m *MockMaintenanceCollection) UpdateRecord(ctx context.Context, id string, record models.MaintenanceRecord) error {
	args := m.Called(ctx, id, record)
	return args.Error(0)
}

func (m *MockMaintenanceCollection) DeletePendingByAsset(ctx context.Context, assetItemID string) error {
	args := m.Called(ctx, assetItemID)
	return args.Error(0)
}
