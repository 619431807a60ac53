package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssetStatus is the current availability of an asset.
type AssetStatus string

const (
	AssetAvailable       AssetStatus = "available"
	AssetUnderRefinement AssetStatus = "under_refinement"
)

// IsValidAssetStatus checks if an asset status is one of the known values.
func IsValidAssetStatus(status AssetStatus) bool {
	switch status {
	case AssetAvailable, AssetUnderRefinement:
		return true
	default:
		return false
	}
}

// AssetItem is a single tracked asset. CreatedAt anchors the derived
// maintenance schedule: all estimation dates are offsets from it.
type AssetItem struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CategoryID primitive.ObjectID `bson:"category_id" json:"category_id"`
	Code       string             `bson:"code" json:"code"`
	Name       string             `bson:"name" json:"name"`
	Status     AssetStatus        `bson:"status" json:"status"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}
