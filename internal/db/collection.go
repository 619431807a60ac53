package db

import (
	"context"
	"errors"

	"github.com/hendrisulistya/asset-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is wrapped by every lookup that misses, regardless of backend.
var ErrNotFound = errors.New("not found")

// Transactor runs a function inside a single storage transaction. The
// schedule reconciler uses it so its delete+insert sequence is never observed
// half-applied, and lifecycle transitions use it so their guard re-check and
// status write happen atomically.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// CategoryCollection defines the interface for asset category operations.
type CategoryCollection interface {
	InsertCategory(ctx context.Context, category models.AssetCategory) (primitive.ObjectID, error)
	FindCategoryByID(ctx context.Context, id string) (*models.AssetCategory, error)
	FindCategories(ctx context.Context) ([]models.AssetCategory, error)
	UpdateCategoryFrequency(ctx context.Context, id string, frequencyPerYear int) error
}

// AssetCollection defines the interface for asset item operations.
type AssetCollection interface {
	InsertAsset(ctx context.Context, asset models.AssetItem) (primitive.ObjectID, error)
	FindAssetByID(ctx context.Context, id string) (*models.AssetItem, error)
	FindAssets(ctx context.Context) ([]models.AssetItem, error)
	FindAssetsByCategory(ctx context.Context, categoryID string) ([]models.AssetItem, error)
	UpdateAssetStatus(ctx context.Context, id string, status models.AssetStatus) error
	DeleteAsset(ctx context.Context, id string) error
}

// MaintenanceFilter narrows maintenance record listings.
type MaintenanceFilter struct {
	AssetItemID string
	Status      models.MaintenanceStatus
}

// MaintenanceCollection defines the interface for maintenance record
// operations. Find results are always sorted ascending by estimation date;
// the actionability evaluation depends on that order.
type MaintenanceCollection interface {
	InsertRecords(ctx context.Context, records []models.MaintenanceRecord) error
	FindRecordByID(ctx context.Context, id string) (*models.MaintenanceRecord, error)
	FindRecordsByAsset(ctx context.Context, assetItemID string) ([]models.MaintenanceRecord, error)
	FindRecords(ctx context.Context, filter MaintenanceFilter) ([]models.MaintenanceRecord, error)
	UpdateRecord(ctx context.Context, id string, record models.MaintenanceRecord) error
	DeletePendingByAsset(ctx context.Context, assetItemID string) error
}
