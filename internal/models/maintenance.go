package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaintenanceStatus is the lifecycle state of one maintenance cycle.
type MaintenanceStatus string

const (
	MaintenancePending    MaintenanceStatus = "pending"
	MaintenanceFinish     MaintenanceStatus = "finish"
	MaintenanceRefinement MaintenanceStatus = "refinement"
	MaintenanceConfirmed  MaintenanceStatus = "confirmed"
	MaintenanceCancelled  MaintenanceStatus = "cancelled"
)

// IsValidMaintenanceStatus checks if a status is one of the known values.
func IsValidMaintenanceStatus(status MaintenanceStatus) bool {
	switch status {
	case MaintenancePending, MaintenanceFinish, MaintenanceRefinement,
		MaintenanceConfirmed, MaintenanceCancelled:
		return true
	default:
		return false
	}
}

// ChecklistValue is the verdict recorded for one checklist item.
type ChecklistValue string

const (
	ChecklistGood    ChecklistValue = "good"
	ChecklistNotGood ChecklistValue = "not_good"
)

// IsValidChecklistValue checks if a checklist verdict is one of the known values.
func IsValidChecklistValue(value ChecklistValue) bool {
	switch value {
	case ChecklistGood, ChecklistNotGood:
		return true
	default:
		return false
	}
}

// ChecklistResult is a snapshot of one category checklist item, filled in
// when findings are submitted. A not_good verdict carries a follow-up.
type ChecklistResult struct {
	ChecklistID string         `bson:"checklist_id" json:"checklist_id"`
	Label       string         `bson:"label" json:"label"`
	Description string         `bson:"description" json:"description"`
	Value       ChecklistValue `bson:"value,omitempty" json:"value,omitempty"`
	Note        string         `bson:"note,omitempty" json:"note,omitempty"`
	FollowUp    string         `bson:"follow_up,omitempty" json:"follow_up,omitempty"`
}

// RepairLog is one entry of the repair sub-workflow entered while a record
// sits in refinement.
type RepairLog struct {
	Date        time.Time `bson:"date" json:"date"`
	Description string    `bson:"description" json:"description"`
	Result      string    `bson:"result" json:"result"`
	Note        string    `bson:"note,omitempty" json:"note,omitempty"`
}

// MaintenanceRecord is one maintenance cycle of one asset. Pending records
// are created and destroyed exclusively by schedule reconciliation;
// non-pending records are historical and survive even asset retirement.
type MaintenanceRecord struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AssetItemID    primitive.ObjectID `bson:"asset_item_id" json:"asset_item_id"`
	EstimationDate time.Time          `bson:"estimation_date" json:"estimation_date"`
	ActualDate     *time.Time         `bson:"actual_date,omitempty" json:"actual_date,omitempty"`
	Status         MaintenanceStatus  `bson:"status" json:"status"`
	Checklists     []ChecklistResult  `bson:"checklists" json:"checklists"`
	RepairLogs     []RepairLog        `bson:"repair_logs,omitempty" json:"repair_logs,omitempty"`
	Note           string             `bson:"note,omitempty" json:"note,omitempty"`
	PerformedBy    string             `bson:"performed_by,omitempty" json:"performed_by,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// AnnotatedMaintenanceRecord is the read model returned by listing and detail
// endpoints: the record plus the actionability flag computed at response time.
type AnnotatedMaintenanceRecord struct {
	MaintenanceRecord
	IsActionable bool `json:"is_actionable"`
}
