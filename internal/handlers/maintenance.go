package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/hendrisulistya/asset-maintenance/internal/db"
	"github.com/hendrisulistya/asset-maintenance/internal/middleware"
	"github.com/hendrisulistya/asset-maintenance/internal/models"
	"github.com/hendrisulistya/asset-maintenance/internal/schedule"
)

// MaintenanceHandler handles maintenance record reads and lifecycle
// transitions.
type MaintenanceHandler struct {
	records   db.MaintenanceCollection
	lifecycle *schedule.Lifecycle
}

// NewMaintenanceHandler creates a new maintenance handler.
func NewMaintenanceHandler(records db.MaintenanceCollection, lifecycle *schedule.Lifecycle) *MaintenanceHandler {
	return &MaintenanceHandler{records: records, lifecycle: lifecycle}
}

// List returns maintenance records matching the asset_id and status query
// parameters. Every record is annotated with is_actionable at response time.
func (h *MaintenanceHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := db.MaintenanceFilter{
		AssetItemID: r.URL.Query().Get("asset_id"),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		if !models.IsValidMaintenanceStatus(models.MaintenanceStatus(status)) {
			http.Error(w, "Invalid status filter", http.StatusBadRequest)
			return
		}
		filter.Status = models.MaintenanceStatus(status)
	}

	records, err := h.records.FindRecords(r.Context(), filter)
	if err != nil {
		http.Error(w, "Failed to list maintenance records", http.StatusInternalServerError)
		return
	}

	// Actionability gates against the full history of each asset, not just
	// the filtered listing.
	siblingsByAsset := make(map[string][]models.MaintenanceRecord)
	for _, record := range records {
		assetID := record.AssetItemID.Hex()
		if _, ok := siblingsByAsset[assetID]; ok {
			continue
		}
		siblings, err := h.records.FindRecordsByAsset(r.Context(), assetID)
		if err != nil {
			http.Error(w, "Failed to load sibling records", http.StatusInternalServerError)
			return
		}
		siblingsByAsset[assetID] = siblings
	}

	annotated := schedule.Annotate(records, siblingsByAsset)
	if annotated == nil {
		annotated = []models.AnnotatedMaintenanceRecord{}
	}
	writeJSON(w, http.StatusOK, annotated)
}

// Get returns one maintenance record, annotated.
func (h *MaintenanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	record, err := h.records.FindRecordByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Maintenance record not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load maintenance record", http.StatusInternalServerError)
		return
	}
	siblings, err := h.records.FindRecordsByAsset(r.Context(), record.AssetItemID.Hex())
	if err != nil {
		http.Error(w, "Failed to load sibling records", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, models.AnnotatedMaintenanceRecord{
		MaintenanceRecord: *record,
		IsActionable:      schedule.IsActionable(*record, siblings),
	})
}

// SubmitFindings records performed maintenance on an actionable cycle.
func (h *MaintenanceHandler) SubmitFindings(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	var input schedule.FindingsInput
	if err := json.Unmarshal(body, &input); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if claims, ok := middleware.GetUserFromContext(r.Context()); ok {
		input.PerformedBy = claims.Username
	}

	record, err := h.lifecycle.SubmitFindings(r.Context(), r.PathValue("id"), input)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// ResolveRefinement appends a repair log entry to a record under refinement.
func (h *MaintenanceHandler) ResolveRefinement(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	var input schedule.RepairInput
	if err := json.Unmarshal(body, &input); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	record, err := h.lifecycle.ResolveRefinement(r.Context(), r.PathValue("id"), input)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// Confirm accepts a finished maintenance cycle, unlocking the next one.
func (h *MaintenanceHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	record, err := h.lifecycle.Confirm(r.Context(), r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// Cancel drops a pending cycle out of the schedule.
func (h *MaintenanceHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	record, err := h.lifecycle.Cancel(r.Context(), r.PathValue("id"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}
