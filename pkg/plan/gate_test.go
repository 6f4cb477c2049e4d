package plan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slotPreflighter blocks adds that target a slot already claimed earlier
// in the batch, and anything aimed at box 99. It is deterministic over a
// fixed baseline, so repeated runs of the same batch agree.
type slotPreflighter struct {
	calls int
	err   error
}

func (p *slotPreflighter) Preflight(items []Item) (*Report, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	claimed := map[[2]int]bool{}
	report := &Report{}
	for _, item := range items {
		ir := ItemReport{Item: item, OK: true}
		slot := [2]int{item.Box, item.Position}
		switch {
		case item.Box == 99:
			ir = ItemReport{Item: item, Blocked: true, ErrorCode: "box_not_found", Message: "box 99 does not exist"}
		case item.Action == ActionAdd && claimed[slot]:
			ir = ItemReport{Item: item, Blocked: true, ErrorCode: "slot_occupied", Message: "slot already claimed"}
		default:
			claimed[slot] = true
		}
		report.Items = append(report.Items, ir)
	}
	report.Finalize()
	return report, nil
}

func add(box, pos int) Item {
	return Item{Action: ActionAdd, Box: box, Position: pos, Payload: map[string]any{"cell_line": "K562"}}
}

func TestStageAcceptsCleanBatch(t *testing.T) {
	res, err := Stage(nil, []Item{add(1, 1), add(1, 2)}, &slotPreflighter{})
	require.NoError(t, err)

	assert.Len(t, res.Accepted, 2)
	assert.Empty(t, res.Blocked)
	assert.True(t, res.Report.OK)
	assert.Equal(t, Stats{Total: 2, OK: 2}, res.Report.Stats)
}

func TestStageRejectsWholeBatchOnAnyBlock(t *testing.T) {
	// One valid incoming item and one aimed at a missing box: neither may
	// be accepted.
	res, err := Stage(nil, []Item{add(1, 1), add(99, 1)}, &slotPreflighter{})
	require.NoError(t, err)

	assert.Empty(t, res.Accepted)
	require.Len(t, res.Blocked, 1)
	assert.Equal(t, 99, res.Blocked[0].Box)
	assert.True(t, res.Report.Blocked)
}

func TestStageDetectsConflictWithExisting(t *testing.T) {
	existing := []Item{add(1, 2)}
	res, err := Stage(existing, []Item{add(1, 2)}, &slotPreflighter{})
	require.NoError(t, err)

	assert.Empty(t, res.Accepted, "incoming duplicate of a staged slot must not land")
	require.Len(t, res.Blocked, 1)
	assert.Equal(t, "slot_occupied", res.Report.Items[1].ErrorCode)
}

func TestStageNeverEvictsExisting(t *testing.T) {
	// Both existing items claim the same slot, so the report flags the
	// second one. The incoming item is clean and must still be accepted;
	// the gate only judges the incoming batch.
	existing := []Item{add(1, 2), add(1, 2)}
	res, err := Stage(existing, []Item{add(1, 3)}, &slotPreflighter{})
	require.NoError(t, err)

	assert.Len(t, res.Accepted, 1)
	assert.Empty(t, res.Blocked)
	assert.True(t, res.Report.Items[1].Blocked, "report still surfaces the existing conflict")
}

func TestStageIdempotentOnFixedBaseline(t *testing.T) {
	pf := &slotPreflighter{}
	batch := []Item{add(1, 1), add(99, 1)}

	first, err := Stage(nil, batch, pf)
	require.NoError(t, err)
	second, err := Stage(nil, batch, pf)
	require.NoError(t, err)

	assert.Equal(t, 2, pf.calls)
	assert.Equal(t, first.Report.Stats, second.Report.Stats)
	assert.Equal(t, first.Blocked, second.Blocked)
}

func TestStagePreflightError(t *testing.T) {
	pf := &slotPreflighter{err: errors.New("inventory unreadable")}
	res, err := Stage(nil, []Item{add(1, 1)}, pf)

	require.Error(t, err)
	assert.Nil(t, res)
}

func TestStageVerdictCountMismatch(t *testing.T) {
	res, err := Stage(nil, []Item{add(1, 1), add(1, 2)}, shortPreflighter{})
	require.Error(t, err)
	assert.Nil(t, res)
}

// shortPreflighter returns fewer verdicts than items, which the gate must
// treat as a contract violation rather than guess at alignment.
type shortPreflighter struct{}

func (shortPreflighter) Preflight(items []Item) (*Report, error) {
	r := &Report{Items: []ItemReport{{Item: items[0], OK: true}}}
	r.Finalize()
	return r, nil
}

func TestReportFinalize(t *testing.T) {
	r := &Report{Items: []ItemReport{
		{OK: true},
		{Blocked: true, ErrorCode: "slot_occupied"},
		{OK: true},
	}}
	r.Finalize()

	assert.Equal(t, Stats{Total: 3, OK: 2, Blocked: 1}, r.Stats)
	assert.True(t, r.Blocked)
	assert.False(t, r.OK)
}
