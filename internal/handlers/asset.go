package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hendrisulistya/asset-maintenance/internal/db"
	"github.com/hendrisulistya/asset-maintenance/internal/models"
	"github.com/hendrisulistya/asset-maintenance/internal/schedule"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssetHandler handles asset item requests.
type AssetHandler struct {
	assets     db.AssetCollection
	categories db.CategoryCollection
	engine     *schedule.Engine
}

// NewAssetHandler creates a new asset handler.
func NewAssetHandler(assets db.AssetCollection, categories db.CategoryCollection, engine *schedule.Engine) *AssetHandler {
	return &AssetHandler{assets: assets, categories: categories, engine: engine}
}

type createAssetRequest struct {
	CategoryID string     `json:"category_id"`
	Code       string     `json:"code"`
	Name       string     `json:"name"`
	CreatedAt  *time.Time `json:"created_at"`
}

// Create registers an asset and derives its initial maintenance schedule.
func (h *AssetHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	var req createAssetRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	fields := make(map[string]string)
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "required"
	}
	if req.CategoryID == "" {
		fields["category_id"] = "required"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  "validation failed",
			"fields": fields,
		})
		return
	}

	category, err := h.categories.FindCategoryByID(r.Context(), req.CategoryID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Category not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load category", http.StatusInternalServerError)
		return
	}

	createdAt := time.Now()
	if req.CreatedAt != nil {
		createdAt = *req.CreatedAt
	}
	asset := models.AssetItem{
		CategoryID: category.ID,
		Code:       req.Code,
		Name:       req.Name,
		Status:     models.AssetAvailable,
		CreatedAt:  createdAt,
	}
	id, err := h.assets.InsertAsset(r.Context(), asset)
	if err != nil {
		http.Error(w, "Failed to create asset", http.StatusInternalServerError)
		return
	}
	asset.ID = id

	// First reconciliation: no prior records, every derived date becomes a
	// pending record.
	if err := h.engine.Regenerate(r.Context(), asset); err != nil {
		log.WithFields(log.Fields{"asset_id": id.Hex()}).WithError(err).Error("Failed to derive initial schedule")
		http.Error(w, "Failed to derive maintenance schedule", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, asset)
}

// Get returns one asset by ID.
func (h *AssetHandler) Get(w http.ResponseWriter, r *http.Request) {
	asset, err := h.assets.FindAssetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Asset not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load asset", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, asset)
}

// List returns all assets.
func (h *AssetHandler) List(w http.ResponseWriter, r *http.Request) {
	assets, err := h.assets.FindAssets(r.Context())
	if err != nil {
		http.Error(w, "Failed to list assets", http.StatusInternalServerError)
		return
	}
	if assets == nil {
		assets = []models.AssetItem{}
	}
	writeJSON(w, http.StatusOK, assets)
}

// Retire removes an asset and its not-yet-started schedule. Historical
// maintenance records stay behind for audit.
func (h *AssetHandler) Retire(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		http.Error(w, "Invalid asset ID", http.StatusBadRequest)
		return
	}

	if _, err := h.assets.FindAssetByID(r.Context(), id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Asset not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load asset", http.StatusInternalServerError)
		return
	}

	if err := h.engine.ClearPending(r.Context(), id); err != nil {
		http.Error(w, "Failed to clear pending maintenance", http.StatusInternalServerError)
		return
	}
	if err := h.assets.DeleteAsset(r.Context(), id); err != nil {
		http.Error(w, "Failed to delete asset", http.StatusInternalServerError)
		return
	}

	log.WithFields(log.Fields{"asset_id": id}).Info("Retired asset")
	writeJSON(w, http.StatusOK, map[string]string{"message": "asset retired"})
}
