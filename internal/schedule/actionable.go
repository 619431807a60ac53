package schedule

import (
	"github.com/hendrisulistya/asset-maintenance/internal/models"
)

// IsActionable reports whether a maintenance record can be worked on right
// now: it must be pending and every sibling with a strictly earlier
// estimation date must already be confirmed. This keeps one cycle in flight
// per asset.
//
// The result is recomputed from the current sibling set on every call and is
// never persisted, so it cannot go stale. The sibling slice does not need to
// be sorted and may include the record itself.
func IsActionable(record models.MaintenanceRecord, siblings []models.MaintenanceRecord) bool {
	if record.Status != models.MaintenancePending {
		return false
	}
	for _, sibling := range siblings {
		if sibling.ID == record.ID {
			continue
		}
		if sibling.EstimationDate.Before(record.EstimationDate) &&
			sibling.Status != models.MaintenanceConfirmed {
			return false
		}
	}
	return true
}

// Annotate attaches the actionability flag to each record. siblingsByAsset
// must hold the complete record set of every asset appearing in records,
// keyed by asset item ID hex; listings filtered by status still gate against
// the full history.
func Annotate(records []models.MaintenanceRecord, siblingsByAsset map[string][]models.MaintenanceRecord) []models.AnnotatedMaintenanceRecord {
	annotated := make([]models.AnnotatedMaintenanceRecord, 0, len(records))
	for _, record := range records {
		annotated = append(annotated, models.AnnotatedMaintenanceRecord{
			MaintenanceRecord: record,
			IsActionable:      IsActionable(record, siblingsByAsset[record.AssetItemID.Hex()]),
		})
	}
	return annotated
}
