package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/hendrisulistya/asset-maintenance/internal/db"
	"github.com/hendrisulistya/asset-maintenance/internal/models"
	log "github.com/sirupsen/logrus"
)

// Engine reconciles the persisted pending schedule of an asset with the
// schedule derived from its category frequency. Only pending records are
// ever read for deletion or written; records in any other status are
// historical and untouchable.
type Engine struct {
	tx           db.Transactor
	categories   db.CategoryCollection
	records      db.MaintenanceCollection
	horizonYears int
}

// NewEngine creates a reconciliation engine. A non-positive horizon falls
// back to DefaultHorizonYears.
func NewEngine(tx db.Transactor, categories db.CategoryCollection, records db.MaintenanceCollection, horizonYears int) *Engine {
	if horizonYears <= 0 {
		horizonYears = DefaultHorizonYears
	}
	return &Engine{
		tx:           tx,
		categories:   categories,
		records:      records,
		horizonYears: horizonYears,
	}
}

// Regenerate makes the asset's pending records match the derived schedule:
// derived due dates already covered by a non-pending record are skipped, all
// current pending records are deleted, and one fresh pending record is
// inserted per remaining date, carrying a checklist snapshot copied from the
// category. The whole sequence runs in one transaction so no reader ever
// observes a half-reconciled schedule, and concurrent regenerations of the
// same asset serialize on it.
func (e *Engine) Regenerate(ctx context.Context, asset models.AssetItem) error {
	return e.tx.WithTransaction(ctx, func(ctx context.Context) error {
		category, err := e.categories.FindCategoryByID(ctx, asset.CategoryID.Hex())
		if err != nil {
			return fmt.Errorf("load category: %w", err)
		}

		wanted, err := e.wantedDates(ctx, asset, category)
		if err != nil {
			return err
		}

		if err := e.records.DeletePendingByAsset(ctx, asset.ID.Hex()); err != nil {
			return fmt.Errorf("delete pending records: %w", err)
		}

		pending := make([]models.MaintenanceRecord, 0, len(wanted))
		for _, due := range wanted {
			pending = append(pending, models.MaintenanceRecord{
				AssetItemID:    asset.ID,
				EstimationDate: due,
				Status:         models.MaintenancePending,
				Checklists:     category.SnapshotChecklists(),
			})
		}
		if err := e.records.InsertRecords(ctx, pending); err != nil {
			return fmt.Errorf("insert pending records: %w", err)
		}

		log.WithFields(log.Fields{
			"asset_id":           asset.ID.Hex(),
			"frequency_per_year": category.FrequencyPerYear,
			"pending_count":      len(pending),
		}).Debug("Regenerated maintenance schedule")
		return nil
	})
}

// NeedsRegenerate reports whether the asset's pending records have drifted
// from the derived schedule. The periodic sweep calls this first so an
// in-sync asset keeps its pending record identities.
func (e *Engine) NeedsRegenerate(ctx context.Context, asset models.AssetItem) (bool, error) {
	category, err := e.categories.FindCategoryByID(ctx, asset.CategoryID.Hex())
	if err != nil {
		return false, fmt.Errorf("load category: %w", err)
	}

	target := Derive(asset.CreatedAt, category.FrequencyPerYear, e.horizonYears)
	existing, err := e.records.FindRecordsByAsset(ctx, asset.ID.Hex())
	if err != nil {
		return false, fmt.Errorf("load records: %w", err)
	}

	covered := make(map[int64]struct{})
	pending := make(map[int64]struct{})
	for _, record := range existing {
		if record.Status == models.MaintenancePending {
			pending[dateKey(record.EstimationDate)] = struct{}{}
		} else {
			covered[dateKey(record.EstimationDate)] = struct{}{}
		}
	}

	wanted := make(map[int64]struct{})
	for _, due := range target {
		if _, ok := covered[dateKey(due)]; !ok {
			wanted[dateKey(due)] = struct{}{}
		}
	}

	if len(wanted) != len(pending) {
		return true, nil
	}
	for key := range wanted {
		if _, ok := pending[key]; !ok {
			return true, nil
		}
	}
	return false, nil
}

// ClearPending removes the not-yet-started schedule of an asset. This is the
// retirement path: historical records stay behind for audit.
func (e *Engine) ClearPending(ctx context.Context, assetItemID string) error {
	return e.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := e.records.DeletePendingByAsset(ctx, assetItemID); err != nil {
			return fmt.Errorf("delete pending records: %w", err)
		}
		return nil
	})
}

// wantedDates is the set diff at the core of reconciliation: derived target
// dates minus the dates already covered by a non-pending record.
func (e *Engine) wantedDates(ctx context.Context, asset models.AssetItem, category *models.AssetCategory) ([]time.Time, error) {
	target := Derive(asset.CreatedAt, category.FrequencyPerYear, e.horizonYears)

	existing, err := e.records.FindRecordsByAsset(ctx, asset.ID.Hex())
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	covered := make(map[int64]struct{})
	for _, record := range existing {
		if record.Status != models.MaintenancePending {
			covered[dateKey(record.EstimationDate)] = struct{}{}
		}
	}

	wanted := make([]time.Time, 0, len(target))
	for _, due := range target {
		if _, ok := covered[dateKey(due)]; ok {
			continue
		}
		wanted = append(wanted, due)
	}
	return wanted, nil
}
