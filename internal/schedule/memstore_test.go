package schedule

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hendrisulistya/asset-maintenance/internal/db"
	"github.com/hendrisulistya/asset-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore is an in-memory implementation of the db interfaces used by the
// engine tests. WithTransaction just runs the function; atomicity is the
// real store's concern.
type memStore struct {
	mu         sync.Mutex
	categories map[string]models.AssetCategory
	assets     map[string]models.AssetItem
	records    map[string]models.MaintenanceRecord
}

var (
	_ db.Transactor            = (*memStore)(nil)
	_ db.CategoryCollection    = (*memStore)(nil)
	_ db.AssetCollection       = (*memStore)(nil)
	_ db.MaintenanceCollection = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{
		categories: make(map[string]models.AssetCategory),
		assets:     make(map[string]models.AssetItem),
		records:    make(map[string]models.MaintenanceRecord),
	}
}

func (s *memStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *memStore) InsertCategory(ctx context.Context, category models.AssetCategory) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if category.ID.IsZero() {
		category.ID = primitive.NewObjectID()
	}
	s.categories[category.ID.Hex()] = category
	return category.ID, nil
}

func (s *memStore) FindCategoryByID(ctx context.Context, id string) (*models.AssetCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	category, ok := s.categories[id]
	if !ok {
		return nil, fmt.Errorf("category: %w", db.ErrNotFound)
	}
	return &category, nil
}

func (s *memStore) FindCategories(ctx context.Context) ([]models.AssetCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AssetCategory, 0, len(s.categories))
	for _, category := range s.categories {
		out = append(out, category)
	}
	return out, nil
}

func (s *memStore) UpdateCategoryFrequency(ctx context.Context, id string, frequencyPerYear int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	category, ok := s.categories[id]
	if !ok {
		return fmt.Errorf("category: %w", db.ErrNotFound)
	}
	category.FrequencyPerYear = frequencyPerYear
	s.categories[id] = category
	return nil
}

func (s *memStore) InsertAsset(ctx context.Context, asset models.AssetItem) (primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if asset.ID.IsZero() {
		asset.ID = primitive.NewObjectID()
	}
	s.assets[asset.ID.Hex()] = asset
	return asset.ID, nil
}

func (s *memStore) FindAssetByID(ctx context.Context, id string) (*models.AssetItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	asset, ok := s.assets[id]
	if !ok {
		return nil, fmt.Errorf("asset: %w", db.ErrNotFound)
	}
	return &asset, nil
}

func (s *memStore) FindAssets(ctx context.Context) ([]models.AssetItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AssetItem, 0, len(s.assets))
	for _, asset := range s.assets {
		out = append(out, asset)
	}
	return out, nil
}

func (s *memStore) FindAssetsByCategory(ctx context.Context, categoryID string) ([]models.AssetItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AssetItem
	for _, asset := range s.assets {
		if asset.CategoryID.Hex() == categoryID {
			out = append(out, asset)
		}
	}
	return out, nil
}

func (s *memStore) UpdateAssetStatus(ctx context.Context, id string, status models.AssetStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	asset, ok := s.assets[id]
	if !ok {
		return fmt.Errorf("asset: %w", db.ErrNotFound)
	}
	asset.Status = status
	s.assets[id] = asset
	return nil
}

func (s *memStore) DeleteAsset(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assets[id]; !ok {
		return fmt.Errorf("asset: %w", db.ErrNotFound)
	}
	delete(s.assets, id)
	return nil
}

func (s *memStore) InsertRecords(ctx context.Context, records []models.MaintenanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range records {
		if record.ID.IsZero() {
			record.ID = primitive.NewObjectID()
		}
		s.records[record.ID.Hex()] = record
	}
	return nil
}

func (s *memStore) FindRecordByID(ctx context.Context, id string) (*models.MaintenanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("maintenance record: %w", db.ErrNotFound)
	}
	return &record, nil
}

func (s *memStore) FindRecordsByAsset(ctx context.Context, assetItemID string) ([]models.MaintenanceRecord, error) {
	return s.FindRecords(ctx, db.MaintenanceFilter{AssetItemID: assetItemID})
}

func (s *memStore) FindRecords(ctx context.Context, filter db.MaintenanceFilter) ([]models.MaintenanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.MaintenanceRecord
	for _, record := range s.records {
		if filter.AssetItemID != "" && record.AssetItemID.Hex() != filter.AssetItemID {
			continue
		}
		if filter.Status != "" && record.Status != filter.Status {
			continue
		}
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EstimationDate.Before(out[j].EstimationDate)
	})
	return out, nil
}

func (s *memStore) UpdateRecord(ctx context.Context, id string, record models.MaintenanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.records[id]
	if !ok {
		return fmt.Errorf("maintenance record: %w", db.ErrNotFound)
	}
	record.ID = existing.ID
	s.records[id] = record
	return nil
}

func (s *memStore) DeletePendingByAsset(ctx context.Context, assetItemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, record := range s.records {
		if record.AssetItemID.Hex() == assetItemID && record.Status == models.MaintenancePending {
			delete(s.records, id)
		}
	}
	return nil
}
