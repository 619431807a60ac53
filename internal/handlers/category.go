package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/hendrisulistya/asset-maintenance/internal/db"
	"github.com/hendrisulistya/asset-maintenance/internal/models"
	"github.com/hendrisulistya/asset-maintenance/internal/schedule"
	log "github.com/sirupsen/logrus"
)

// CategoryHandler handles asset category requests.
type CategoryHandler struct {
	categories db.CategoryCollection
	assets     db.AssetCollection
	engine     *schedule.Engine
}

// NewCategoryHandler creates a new category handler.
func NewCategoryHandler(categories db.CategoryCollection, assets db.AssetCollection, engine *schedule.Engine) *CategoryHandler {
	return &CategoryHandler{categories: categories, assets: assets, engine: engine}
}

type createCategoryRequest struct {
	Name             string                 `json:"name"`
	FrequencyPerYear *int                   `json:"frequency_per_year"`
	Checklists       []models.ChecklistItem `json:"checklists"`
}

type updateFrequencyRequest struct {
	FrequencyPerYear *int `json:"frequency_per_year"`
}

// Create handles category creation.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	var req createCategoryRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	fields := make(map[string]string)
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "required"
	}
	if req.FrequencyPerYear == nil {
		fields["frequency_per_year"] = "required"
	} else if *req.FrequencyPerYear < 0 {
		fields["frequency_per_year"] = "must not be negative"
	}
	for i := range req.Checklists {
		if strings.TrimSpace(req.Checklists[i].Label) == "" {
			fields["checklists.label"] = "required"
		}
		if req.Checklists[i].ID == "" {
			req.Checklists[i].ID = uuid.NewString()
		}
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  "validation failed",
			"fields": fields,
		})
		return
	}

	category := models.AssetCategory{
		Name:             req.Name,
		FrequencyPerYear: *req.FrequencyPerYear,
		Checklists:       req.Checklists,
	}
	id, err := h.categories.InsertCategory(r.Context(), category)
	if err != nil {
		http.Error(w, "Failed to create category", http.StatusInternalServerError)
		return
	}
	category.ID = id
	writeJSON(w, http.StatusCreated, category)
}

// List returns all categories.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.FindCategories(r.Context())
	if err != nil {
		http.Error(w, "Failed to list categories", http.StatusInternalServerError)
		return
	}
	if categories == nil {
		categories = []models.AssetCategory{}
	}
	writeJSON(w, http.StatusOK, categories)
}

// UpdateFrequency changes a category's annual maintenance frequency and
// regenerates the schedule of every asset in the category. An unchanged
// frequency short-circuits before touching any record, which is what keeps
// pending record identities stable across no-op edits.
func (h *CategoryHandler) UpdateFrequency(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	var req updateFrequencyRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.FrequencyPerYear == nil || *req.FrequencyPerYear < 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  "validation failed",
			"fields": map[string]string{"frequency_per_year": "must be a non-negative integer"},
		})
		return
	}

	category, err := h.categories.FindCategoryByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Category not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load category", http.StatusInternalServerError)
		return
	}

	if category.FrequencyPerYear == *req.FrequencyPerYear {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message":     "frequency unchanged",
			"regenerated": 0,
		})
		return
	}

	if err := h.categories.UpdateCategoryFrequency(r.Context(), id, *req.FrequencyPerYear); err != nil {
		http.Error(w, "Failed to update category", http.StatusInternalServerError)
		return
	}

	assets, err := h.assets.FindAssetsByCategory(r.Context(), id)
	if err != nil {
		http.Error(w, "Failed to list category assets", http.StatusInternalServerError)
		return
	}
	for _, asset := range assets {
		if err := h.engine.Regenerate(r.Context(), asset); err != nil {
			log.WithFields(log.Fields{
				"category_id": id,
				"asset_id":    asset.ID.Hex(),
			}).WithError(err).Error("Failed to regenerate schedule")
			http.Error(w, "Failed to regenerate schedules", http.StatusInternalServerError)
			return
		}
	}

	log.WithFields(log.Fields{
		"category_id":        id,
		"frequency_per_year": *req.FrequencyPerYear,
		"regenerated":        len(assets),
	}).Info("Updated category frequency")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "frequency updated",
		"regenerated": len(assets),
	})
}
