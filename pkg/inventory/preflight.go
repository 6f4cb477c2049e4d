package inventory

import (
	"fmt"

	"github.com/coldframe/frost/pkg/plan"
)

// Preflight error codes. Schema-shape violations use CodeInvalidInput;
// everything else describes a semantic conflict with the baseline or with
// another item in the candidate batch.
const (
	CodeInvalidInput     = "invalid_tool_input"
	CodeBoxNotFound      = "box_not_found"
	CodePositionRange    = "position_out_of_range"
	CodeSlotOccupied     = "slot_occupied"
	CodeRecordNotFound   = "record_not_found"
	CodeDuplicatePending = "duplicate_pending"
	CodeNotTakenOut      = "not_taken_out"
	CodeStillStored      = "record_still_stored"
)

// Validator preflights candidate plan batches against the live inventory.
// It satisfies plan.Preflighter. Every call loads a fresh baseline from
// disk, so validation always runs against the latest on-disk state even
// when the plan itself has not changed.
type Validator struct {
	store *Store
}

// NewValidator creates a validator over the given inventory store.
func NewValidator(store *Store) *Validator {
	return &Validator{store: store}
}

type slot struct {
	box int
	pos int
}

// batchState tracks the simulated effect of earlier (valid) items on later
// ones within a single candidate batch.
type batchState struct {
	baseline *File
	occupied map[slot]string        // slot -> record id ("" for a pending add)
	location map[string]slot        // record id -> current slot
	removed  map[string]bool        // records taken out earlier in the batch
	seen     map[plan.Key]bool      // identity tuples already staged
}

func newBatchState(baseline *File) *batchState {
	st := &batchState{
		baseline: baseline,
		occupied: make(map[slot]string),
		location: make(map[string]slot),
		removed:  make(map[string]bool),
		seen:     make(map[plan.Key]bool),
	}
	for _, rec := range baseline.Records {
		s := slot{box: rec.Box, pos: rec.Position}
		st.occupied[s] = rec.ID
		st.location[rec.ID] = s
	}
	return st
}

// Preflight validates the whole candidate batch, in order, against a fresh
// baseline snapshot. Blocked items are reported but do not contribute their
// effects to the simulation, so one bad item cannot mask or manufacture
// conflicts for its neighbors.
func (v *Validator) Preflight(items []plan.Item) (*plan.Report, error) {
	baseline, err := v.store.Baseline()
	if err != nil {
		return nil, fmt.Errorf("load baseline: %w", err)
	}
	return PreflightAgainst(items, baseline), nil
}

// PreflightAgainst validates the batch against an explicit baseline. Split
// out so the gate's idempotence is testable on a fixed snapshot.
func PreflightAgainst(items []plan.Item, baseline *Baseline) *plan.Report {
	st := newBatchState(baseline.File)
	report := &plan.Report{Items: make([]plan.ItemReport, 0, len(items))}

	for _, item := range items {
		ir := plan.ItemReport{Item: item}

		code, msg := checkItem(item, st)
		if code != "" {
			ir.Blocked = true
			ir.ErrorCode = code
			ir.Message = msg
		} else {
			ir.OK = true
			st.apply(item)
		}
		report.Items = append(report.Items, ir)
	}

	report.Finalize()
	return report
}

// checkItem returns an error code and message, or ("", "") when the item
// is acceptable given the baseline and the batch effects simulated so far.
func checkItem(item plan.Item, st *batchState) (string, string) {
	// Shape first: schema violations get their own taxonomy.
	if shapeErr, err := validateShape(item); err != nil {
		return CodeInvalidInput, err.Error()
	} else if shapeErr != "" {
		return CodeInvalidInput, shapeErr
	}

	if st.seen[item.Key()] {
		return CodeDuplicatePending, fmt.Sprintf("an identical %s operation is already staged", item.Action)
	}

	switch item.Action {
	case plan.ActionAdd:
		return checkTargetSlot(st, item.Box, item.Position)

	case plan.ActionMove:
		if code, msg := checkRecordPresent(st, item.RecordID); code != "" {
			return code, msg
		}
		return checkTargetSlot(st, item.ToBox, item.ToPosition)

	case plan.ActionTakeout, plan.ActionEdit:
		return checkRecordPresent(st, item.RecordID)

	case plan.ActionRollback:
		if _, stored := st.location[item.RecordID]; stored {
			return CodeStillStored, fmt.Sprintf("record %s is still in the inventory; nothing to roll back", item.RecordID)
		}
		entry := st.baseline.LastTakeout(item.RecordID)
		if entry == nil {
			return CodeNotTakenOut, fmt.Sprintf("record %s has no takeout to roll back", item.RecordID)
		}
		return checkTargetSlot(st, entry.Record.Box, entry.Record.Position)
	}
	return CodeInvalidInput, fmt.Sprintf("unknown action %q", item.Action)
}

func checkRecordPresent(st *batchState, recordID string) (string, string) {
	if st.removed[recordID] {
		return CodeRecordNotFound, fmt.Sprintf("record %s is already taken out by an earlier staged item", recordID)
	}
	if _, ok := st.location[recordID]; !ok {
		return CodeRecordNotFound, fmt.Sprintf("record %s does not exist in the inventory", recordID)
	}
	return "", ""
}

func checkTargetSlot(st *batchState, box, pos int) (string, string) {
	b := st.baseline.FindBox(box)
	if b == nil {
		return CodeBoxNotFound, fmt.Sprintf("box %d does not exist", box)
	}
	if pos < 1 || pos > b.Capacity() {
		return CodePositionRange, fmt.Sprintf("position %d is outside box %d (1-%d)", pos, box, b.Capacity())
	}
	if holder, taken := st.occupied[slot{box: box, pos: pos}]; taken {
		if holder == "" {
			return CodeSlotOccupied, fmt.Sprintf("box %d position %d is already claimed by another staged item", box, pos)
		}
		return CodeSlotOccupied, fmt.Sprintf("box %d position %d is occupied by %s", box, pos, holder)
	}
	return "", ""
}

// apply folds an accepted item's effect into the simulation so later items
// in the batch see it.
func (st *batchState) apply(item plan.Item) {
	st.seen[item.Key()] = true

	switch item.Action {
	case plan.ActionAdd:
		st.occupied[slot{box: item.Box, pos: item.Position}] = ""

	case plan.ActionMove:
		if from, ok := st.location[item.RecordID]; ok {
			delete(st.occupied, from)
		}
		to := slot{box: item.ToBox, pos: item.ToPosition}
		st.occupied[to] = item.RecordID
		st.location[item.RecordID] = to

	case plan.ActionTakeout:
		if from, ok := st.location[item.RecordID]; ok {
			delete(st.occupied, from)
			delete(st.location, item.RecordID)
		}
		st.removed[item.RecordID] = true

	case plan.ActionRollback:
		if entry := st.baseline.LastTakeout(item.RecordID); entry != nil {
			s := slot{box: entry.Record.Box, pos: entry.Record.Position}
			st.occupied[s] = item.RecordID
			st.location[item.RecordID] = s
		}
	}
}
