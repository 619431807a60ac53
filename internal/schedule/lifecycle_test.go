package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/hendrisulistya/asset-maintenance/internal/events"
	"github.com/hendrisulistya/asset-maintenance/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPublisher captures emitted events for assertions.
type recordingPublisher struct {
	events []events.MaintenanceEvent
}

func (p *recordingPublisher) Publish(event events.MaintenanceEvent) error {
	p.events = append(p.events, event)
	return nil
}

type lifecycleFixture struct {
	store     *memStore
	lifecycle *Lifecycle
	publisher *recordingPublisher
	asset     models.AssetItem
	pending   []models.MaintenanceRecord
}

func setupLifecycle(t *testing.T, frequencyPerYear int) *lifecycleFixture {
	t.Helper()
	store := newMemStore()
	engine := NewEngine(store, store, store, 2)
	asset := setupAsset(t, store, frequencyPerYear)
	require.NoError(t, engine.Regenerate(context.Background(), asset))

	publisher := &recordingPublisher{}
	return &lifecycleFixture{
		store:     store,
		lifecycle: NewLifecycle(store, store, store, publisher),
		publisher: publisher,
		asset:     asset,
		pending:   pendingRecords(t, store, asset.ID),
	}
}

func goodFindings(record models.MaintenanceRecord, needsFurtherRepair bool) FindingsInput {
	now := time.Now()
	inputs := make([]ChecklistInput, 0, len(record.Checklists))
	for _, item := range record.Checklists {
		inputs = append(inputs, ChecklistInput{
			ChecklistID: item.ChecklistID,
			Value:       "good",
			Note:        "checked",
		})
	}
	return FindingsInput{
		ActualDate:         &now,
		Note:               "routine service",
		NeedsFurtherRepair: needsFurtherRepair,
		PerformedBy:        "tech-1",
		Checklists:         inputs,
	}
}

func TestSubmitFindings_Finish(t *testing.T) {
	f := setupLifecycle(t, 2)
	ctx := context.Background()
	first := f.pending[0]

	updated, err := f.lifecycle.SubmitFindings(ctx, first.ID.Hex(), goodFindings(first, false))
	require.NoError(t, err)

	assert.Equal(t, models.MaintenanceFinish, updated.Status)
	assert.NotNil(t, updated.ActualDate)
	assert.Equal(t, "tech-1", updated.PerformedBy)
	for _, item := range updated.Checklists {
		assert.Equal(t, models.ChecklistGood, item.Value)
	}

	asset, err := f.store.FindAssetByID(ctx, f.asset.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.AssetAvailable, asset.Status)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, "submit_findings", f.publisher.events[0].Transition)
	assert.Equal(t, string(models.MaintenanceFinish), f.publisher.events[0].Status)
}

func TestSubmitFindings_Refinement(t *testing.T) {
	f := setupLifecycle(t, 2)
	ctx := context.Background()
	first := f.pending[0]

	input := goodFindings(first, true)
	input.Checklists[0].Value = "not_good"
	input.Checklists[0].FollowUp = "replace the belt"

	updated, err := f.lifecycle.SubmitFindings(ctx, first.ID.Hex(), input)
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceRefinement, updated.Status)

	asset, err := f.store.FindAssetByID(ctx, f.asset.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.AssetUnderRefinement, asset.Status)
}

func TestSubmitFindings_SequentialGating(t *testing.T) {
	f := setupLifecycle(t, 2)
	ctx := context.Background()
	first, second := f.pending[0], f.pending[1]

	// second cycle is rejected while the first is not confirmed
	_, err := f.lifecycle.SubmitFindings(ctx, second.ID.Hex(), goodFindings(second, false))
	require.ErrorIs(t, err, ErrNotActionable)

	unchanged, err := f.store.FindRecordByID(ctx, second.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.MaintenancePending, unchanged.Status, "rejected transition must not mutate")
	assert.Empty(t, f.publisher.events)

	// walk the first cycle to confirmed
	_, err = f.lifecycle.SubmitFindings(ctx, first.ID.Hex(), goodFindings(first, false))
	require.NoError(t, err)
	_, err = f.lifecycle.SubmitFindings(ctx, second.ID.Hex(), goodFindings(second, false))
	require.ErrorIs(t, err, ErrNotActionable, "finish is not enough, confirm is required")

	_, err = f.lifecycle.Confirm(ctx, first.ID.Hex())
	require.NoError(t, err)

	updated, err := f.lifecycle.SubmitFindings(ctx, second.ID.Hex(), goodFindings(second, false))
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceFinish, updated.Status)
}

func TestSubmitFindings_Validation(t *testing.T) {
	f := setupLifecycle(t, 2)
	ctx := context.Background()
	first := f.pending[0]

	tests := []struct {
		name      string
		mutate    func(*FindingsInput)
		wantField string
	}{
		{
			"missing actual date",
			func(in *FindingsInput) { in.ActualDate = nil },
			"actual_date",
		},
		{
			"missing checklist item",
			func(in *FindingsInput) { in.Checklists = in.Checklists[1:] },
			"checklists.oil",
		},
		{
			"unknown checklist item",
			func(in *FindingsInput) {
				in.Checklists = append(in.Checklists, ChecklistInput{ChecklistID: "ghost", Value: "good"})
			},
			"checklists.ghost",
		},
		{
			"malformed value",
			func(in *FindingsInput) { in.Checklists[0].Value = "fine i guess" },
			"checklists.oil.value",
		},
		{
			"not_good without follow-up",
			func(in *FindingsInput) { in.Checklists[0].Value = "not_good" },
			"checklists.oil.follow_up",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := goodFindings(first, false)
			tt.mutate(&input)

			_, err := f.lifecycle.SubmitFindings(ctx, first.ID.Hex(), input)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.wantField)

			unchanged, err := f.store.FindRecordByID(ctx, first.ID.Hex())
			require.NoError(t, err)
			assert.Equal(t, models.MaintenancePending, unchanged.Status)
		})
	}
}

func TestSubmitFindings_CoercesValues(t *testing.T) {
	f := setupLifecycle(t, 2)
	first := f.pending[0]

	input := goodFindings(first, false)
	input.Checklists[0].Value = " OK "
	input.Checklists[1].Value = "Not Good"
	input.Checklists[1].FollowUp = "schedule repair"

	updated, err := f.lifecycle.SubmitFindings(context.Background(), first.ID.Hex(), input)
	require.NoError(t, err)
	assert.Equal(t, models.ChecklistGood, updated.Checklists[0].Value)
	assert.Equal(t, models.ChecklistNotGood, updated.Checklists[1].Value)
}

func TestResolveRefinement(t *testing.T) {
	f := setupLifecycle(t, 2)
	ctx := context.Background()
	first := f.pending[0]

	input := goodFindings(first, true)
	input.Checklists[0].Value = "not_good"
	input.Checklists[0].FollowUp = "replace part"
	_, err := f.lifecycle.SubmitFindings(ctx, first.ID.Hex(), input)
	require.NoError(t, err)

	// first repair entry does not complete the workflow
	updated, err := f.lifecycle.ResolveRefinement(ctx, first.ID.Hex(), RepairInput{
		Description: "ordered replacement part",
		Result:      "waiting for delivery",
	})
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceRefinement, updated.Status)
	require.Len(t, updated.RepairLogs, 1)

	// second entry completes it
	updated, err = f.lifecycle.ResolveRefinement(ctx, first.ID.Hex(), RepairInput{
		Description: "fitted replacement part",
		Result:      "repaired",
		Complete:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceFinish, updated.Status)
	require.Len(t, updated.RepairLogs, 2)

	asset, err := f.store.FindAssetByID(ctx, f.asset.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.AssetAvailable, asset.Status)

	// confirm is now legal
	confirmed, err := f.lifecycle.Confirm(ctx, first.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceConfirmed, confirmed.Status)
}

func TestResolveRefinement_WrongStatus(t *testing.T) {
	f := setupLifecycle(t, 2)
	first := f.pending[0]

	_, err := f.lifecycle.ResolveRefinement(context.Background(), first.ID.Hex(), RepairInput{
		Description: "noop",
	})
	assert.ErrorIs(t, err, ErrNotRefinement)
}

func TestConfirm_Guard(t *testing.T) {
	f := setupLifecycle(t, 2)
	ctx := context.Background()
	first := f.pending[0]

	// pending: soft failure, no state change
	_, err := f.lifecycle.Confirm(ctx, first.ID.Hex())
	require.ErrorIs(t, err, ErrNotFinished)
	unchanged, err := f.store.FindRecordByID(ctx, first.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.MaintenancePending, unchanged.Status)

	// refinement: still a soft failure
	input := goodFindings(first, true)
	input.Checklists[0].Value = "not_good"
	input.Checklists[0].FollowUp = "fix"
	_, err = f.lifecycle.SubmitFindings(ctx, first.ID.Hex(), input)
	require.NoError(t, err)
	_, err = f.lifecycle.Confirm(ctx, first.ID.Hex())
	require.ErrorIs(t, err, ErrNotFinished)

	// finish: legal
	_, err = f.lifecycle.ResolveRefinement(ctx, first.ID.Hex(), RepairInput{Description: "fixed", Complete: true})
	require.NoError(t, err)
	confirmed, err := f.lifecycle.Confirm(ctx, first.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceConfirmed, confirmed.Status)

	// already confirmed: soft failure again
	_, err = f.lifecycle.Confirm(ctx, first.ID.Hex())
	assert.ErrorIs(t, err, ErrNotFinished)
}

func TestCancel(t *testing.T) {
	f := setupLifecycle(t, 2)
	ctx := context.Background()
	first := f.pending[0]

	cancelled, err := f.lifecycle.Cancel(ctx, first.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceCancelled, cancelled.Status)

	// cancelled is terminal
	_, err = f.lifecycle.Cancel(ctx, first.ID.Hex())
	assert.ErrorIs(t, err, ErrNotPending)
	_, err = f.lifecycle.SubmitFindings(ctx, first.ID.Hex(), goodFindings(first, false))
	assert.ErrorIs(t, err, ErrNotActionable)
}
