package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hendrisulistya/asset-maintenance/internal/db"
	"github.com/hendrisulistya/asset-maintenance/internal/schedule"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeEngineError maps schedule engine errors onto the HTTP surface.
//
// Validation problems come back per-field. A gating violation is
// authorization-class (403). Illegal transitions are soft failures: the
// caller gets a message and nothing was changed (409). Everything else is a
// storage fault.
func writeEngineError(w http.ResponseWriter, err error) {
	var verr *schedule.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  "validation failed",
			"fields": verr.Fields,
		})
	case errors.Is(err, schedule.ErrNotActionable):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, schedule.ErrNotFinished),
		errors.Is(err, schedule.ErrNotRefinement),
		errors.Is(err, schedule.ErrNotPending):
		writeJSON(w, http.StatusConflict, map[string]string{"message": err.Error()})
	case errors.Is(err, db.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
