package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChecklistItem is one inspection point defined on a category. The list is
// ordered; the order is preserved in the snapshots copied onto maintenance
// records.
type ChecklistItem struct {
	ID          string `bson:"id" json:"id"`
	Label       string `bson:"label" json:"label"`
	Description string `bson:"description" json:"description"`
}

// AssetCategory groups assets that share a maintenance regime. Changing
// FrequencyPerYear is the sole trigger for re-deriving the schedules of every
// asset in the category.
type AssetCategory struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name             string             `bson:"name" json:"name"`
	FrequencyPerYear int                `bson:"frequency_per_year" json:"frequency_per_year"` // 0 means no scheduled maintenance
	Checklists       []ChecklistItem    `bson:"checklists" json:"checklists"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}

// SnapshotChecklists copies the category's checklist definitions into empty
// result entries. The copy is taken at reconciliation time so later edits to
// the category never rewrite history.
func (c *AssetCategory) SnapshotChecklists() []ChecklistResult {
	if len(c.Checklists) == 0 {
		return nil
	}
	out := make([]ChecklistResult, 0, len(c.Checklists))
	for _, item := range c.Checklists {
		out = append(out, ChecklistResult{
			ChecklistID: item.ID,
			Label:       item.Label,
			Description: item.Description,
		})
	}
	return out
}
