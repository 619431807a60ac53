package schedule

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hendrisulistya/asset-maintenance/internal/db"
	"github.com/hendrisulistya/asset-maintenance/internal/events"
	"github.com/hendrisulistya/asset-maintenance/internal/models"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrNotActionable rejects submit-findings on a record that is not the
	// asset's next workable cycle. Authorization-class: the request is
	// refused outright, nothing is mutated.
	ErrNotActionable = errors.New("maintenance record is not actionable yet")

	// ErrNotPending rejects cancellation of a record that already left pending.
	ErrNotPending = errors.New("maintenance record is not pending")

	// ErrNotRefinement rejects a repair entry on a record that is not under
	// refinement. Soft failure: message only, no state change.
	ErrNotRefinement = errors.New("maintenance record is not under refinement")

	// ErrNotFinished rejects confirm on a record that is not finished. Soft
	// failure: message only, no state change.
	ErrNotFinished = errors.New("maintenance record is not finished")
)

// ValidationError reports per-field problems with a transition payload.
// Nothing is mutated when one is returned.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ChecklistInput is one filled checklist item in a findings payload.
type ChecklistInput struct {
	ChecklistID string `json:"checklist_id"`
	Value       string `json:"value"`
	Note        string `json:"note"`
	FollowUp    string `json:"follow_up"`
}

// FindingsInput is the submit-findings payload.
type FindingsInput struct {
	ActualDate         *time.Time       `json:"actual_date"`
	Note               string           `json:"note"`
	NeedsFurtherRepair bool             `json:"needs_further_repair"`
	PerformedBy        string           `json:"-"`
	Checklists         []ChecklistInput `json:"checklists"`
}

// RepairInput is one resolve-refinement payload. Complete marks the repair
// sub-workflow done and moves the record to finish.
type RepairInput struct {
	Date        *time.Time `json:"date"`
	Description string     `json:"description"`
	Result      string     `json:"result"`
	Note        string     `json:"note"`
	Complete    bool       `json:"complete"`
}

// Lifecycle applies state transitions to individual maintenance records:
//
//	pending --submit-findings--> finish | refinement
//	refinement --resolve-refinement(complete)--> finish
//	finish --confirm--> confirmed
//	pending --cancel--> cancelled
//
// Every transition re-checks its guard inside the transaction that performs
// the write. No transition touches records other than the one addressed;
// unlocking the next cycle happens implicitly through IsActionable.
type Lifecycle struct {
	tx        db.Transactor
	records   db.MaintenanceCollection
	assets    db.AssetCollection
	publisher events.Publisher
}

// NewLifecycle creates a lifecycle state machine. A nil publisher disables
// event emission.
func NewLifecycle(tx db.Transactor, records db.MaintenanceCollection, assets db.AssetCollection, publisher events.Publisher) *Lifecycle {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Lifecycle{tx: tx, records: records, assets: assets, publisher: publisher}
}

// SubmitFindings records performed maintenance on an actionable pending
// record. The checklist snapshot is filled in with coerced good/not_good
// verdicts, the record moves to finish (or refinement when further repair is
// needed), and the owning asset's availability is updated to match.
func (l *Lifecycle) SubmitFindings(ctx context.Context, recordID string, input FindingsInput) (*models.MaintenanceRecord, error) {
	var updated *models.MaintenanceRecord
	err := l.tx.WithTransaction(ctx, func(ctx context.Context) error {
		record, err := l.records.FindRecordByID(ctx, recordID)
		if err != nil {
			return err
		}

		// Guard re-checked here, inside the same transaction as the status
		// write, so a race against a transition on an earlier record cannot
		// slip through.
		siblings, err := l.records.FindRecordsByAsset(ctx, record.AssetItemID.Hex())
		if err != nil {
			return fmt.Errorf("load sibling records: %w", err)
		}
		if !IsActionable(*record, siblings) {
			return ErrNotActionable
		}

		filled, verr := fillChecklists(record.Checklists, input.Checklists)
		if input.ActualDate == nil {
			verr = addFieldError(verr, "actual_date", "required")
		}
		if verr != nil {
			return verr
		}

		record.ActualDate = input.ActualDate
		record.Note = input.Note
		record.PerformedBy = input.PerformedBy
		record.Checklists = filled
		assetStatus := models.AssetAvailable
		record.Status = models.MaintenanceFinish
		if input.NeedsFurtherRepair {
			record.Status = models.MaintenanceRefinement
			assetStatus = models.AssetUnderRefinement
		}

		if err := l.records.UpdateRecord(ctx, recordID, *record); err != nil {
			return fmt.Errorf("update record: %w", err)
		}
		if err := l.assets.UpdateAssetStatus(ctx, record.AssetItemID.Hex(), assetStatus); err != nil {
			return fmt.Errorf("update asset status: %w", err)
		}
		updated = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.publish(updated, "submit_findings")
	return updated, nil
}

// ResolveRefinement appends a repair log entry to a record under refinement.
// When the operator declares the repair complete the record moves to finish
// and the asset becomes available again.
func (l *Lifecycle) ResolveRefinement(ctx context.Context, recordID string, input RepairInput) (*models.MaintenanceRecord, error) {
	var updated *models.MaintenanceRecord
	err := l.tx.WithTransaction(ctx, func(ctx context.Context) error {
		record, err := l.records.FindRecordByID(ctx, recordID)
		if err != nil {
			return err
		}
		if record.Status != models.MaintenanceRefinement {
			return ErrNotRefinement
		}
		if input.Description == "" {
			return &ValidationError{Fields: map[string]string{"description": "required"}}
		}

		date := time.Now()
		if input.Date != nil {
			date = *input.Date
		}
		record.RepairLogs = append(record.RepairLogs, models.RepairLog{
			Date:        date,
			Description: input.Description,
			Result:      input.Result,
			Note:        input.Note,
		})
		if input.Complete {
			record.Status = models.MaintenanceFinish
		}

		if err := l.records.UpdateRecord(ctx, recordID, *record); err != nil {
			return fmt.Errorf("update record: %w", err)
		}
		if input.Complete {
			if err := l.assets.UpdateAssetStatus(ctx, record.AssetItemID.Hex(), models.AssetAvailable); err != nil {
				return fmt.Errorf("update asset status: %w", err)
			}
		}
		updated = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.publish(updated, "resolve_refinement")
	return updated, nil
}

// Confirm accepts a finished record. Legal only from finish; anything else
// is a soft failure that leaves the record untouched.
func (l *Lifecycle) Confirm(ctx context.Context, recordID string) (*models.MaintenanceRecord, error) {
	var updated *models.MaintenanceRecord
	err := l.tx.WithTransaction(ctx, func(ctx context.Context) error {
		record, err := l.records.FindRecordByID(ctx, recordID)
		if err != nil {
			return err
		}
		if record.Status != models.MaintenanceFinish {
			return ErrNotFinished
		}
		record.Status = models.MaintenanceConfirmed
		if err := l.records.UpdateRecord(ctx, recordID, *record); err != nil {
			return fmt.Errorf("update record: %w", err)
		}
		updated = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.publish(updated, "confirm")
	return updated, nil
}

// Cancel drops a pending record out of the schedule. Cancelled is terminal
// and its estimation date stays covered for future reconciliations.
func (l *Lifecycle) Cancel(ctx context.Context, recordID string) (*models.MaintenanceRecord, error) {
	var updated *models.MaintenanceRecord
	err := l.tx.WithTransaction(ctx, func(ctx context.Context) error {
		record, err := l.records.FindRecordByID(ctx, recordID)
		if err != nil {
			return err
		}
		if record.Status != models.MaintenancePending {
			return ErrNotPending
		}
		record.Status = models.MaintenanceCancelled
		if err := l.records.UpdateRecord(ctx, recordID, *record); err != nil {
			return fmt.Errorf("update record: %w", err)
		}
		updated = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.publish(updated, "cancel")
	return updated, nil
}

// publish emits a lifecycle event after the transaction committed. Best
// effort: a broker failure is logged, never propagated.
func (l *Lifecycle) publish(record *models.MaintenanceRecord, transition string) {
	err := l.publisher.Publish(events.MaintenanceEvent{
		RecordID:    record.ID.Hex(),
		AssetItemID: record.AssetItemID.Hex(),
		Transition:  transition,
		Status:      string(record.Status),
		PerformedBy: record.PerformedBy,
		OccurredAt:  time.Now(),
	})
	if err != nil {
		log.WithFields(log.Fields{
			"record_id":  record.ID.Hex(),
			"transition": transition,
		}).WithError(err).Warn("Failed to publish maintenance event")
	}
}

// fillChecklists merges the findings inputs into the record's checklist
// snapshot. Every snapshot item must be answered, values are coerced to the
// canonical good/not_good tags, and a not_good verdict requires a follow-up.
func fillChecklists(snapshot []models.ChecklistResult, inputs []ChecklistInput) ([]models.ChecklistResult, *ValidationError) {
	var verr *ValidationError

	byID := make(map[string]ChecklistInput, len(inputs))
	for _, input := range inputs {
		byID[input.ChecklistID] = input
	}
	known := make(map[string]struct{}, len(snapshot))

	filled := make([]models.ChecklistResult, 0, len(snapshot))
	for _, item := range snapshot {
		known[item.ChecklistID] = struct{}{}
		input, ok := byID[item.ChecklistID]
		if !ok {
			verr = addFieldError(verr, "checklists."+item.ChecklistID, "missing")
			continue
		}
		value, ok := coerceChecklistValue(input.Value)
		if !ok {
			verr = addFieldError(verr, "checklists."+item.ChecklistID+".value", "must be good or not_good")
			continue
		}
		if value == models.ChecklistNotGood && strings.TrimSpace(input.FollowUp) == "" {
			verr = addFieldError(verr, "checklists."+item.ChecklistID+".follow_up", "required when value is not_good")
			continue
		}
		item.Value = value
		item.Note = input.Note
		item.FollowUp = input.FollowUp
		filled = append(filled, item)
	}
	for _, input := range inputs {
		if _, ok := known[input.ChecklistID]; !ok {
			verr = addFieldError(verr, "checklists."+input.ChecklistID, "unknown checklist item")
		}
	}
	if verr != nil {
		return nil, verr
	}
	return filled, nil
}

// coerceChecklistValue normalizes a raw verdict to a canonical tag.
func coerceChecklistValue(raw string) (models.ChecklistValue, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	normalized = strings.ReplaceAll(normalized, "-", "_")
	switch normalized {
	case "good", "ok":
		return models.ChecklistGood, true
	case "not_good", "notgood", "bad":
		return models.ChecklistNotGood, true
	default:
		return "", false
	}
}

func addFieldError(verr *ValidationError, field, message string) *ValidationError {
	if verr == nil {
		verr = &ValidationError{Fields: make(map[string]string)}
	}
	verr.Fields[field] = message
	return verr
}
