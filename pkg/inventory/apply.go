package inventory

import (
	"fmt"
	"time"

	"github.com/coldframe/frost/pkg/plan"
)

// ApplyResult summarizes a committed plan.
type ApplyResult struct {
	Applied int    // items written
	Diff    string // unified diff of the YAML change
}

// Apply executes an already-validated plan against the inventory file.
// The batch is re-preflighted against a fresh baseline first, so a stale
// plan (the file changed since staging) is rejected as a whole rather than
// half-applied.
func (s *Store) Apply(items []plan.Item, operator string) (*ApplyResult, error) {
	if len(items) == 0 {
		return &ApplyResult{}, nil
	}

	baseline, err := s.Baseline()
	if err != nil {
		return nil, err
	}
	report := PreflightAgainst(items, baseline)
	if report.Blocked {
		for _, ir := range report.Items {
			if ir.Blocked {
				return nil, fmt.Errorf("plan no longer valid: %s (%s)", ir.Message, ir.ErrorCode)
			}
		}
	}

	next := baseline.File
	now := time.Now().Format(time.RFC3339)
	for _, item := range items {
		if err := applyItem(next, item, now, operator); err != nil {
			return nil, err
		}
	}

	diff, err := s.Diff(next)
	if err != nil {
		return nil, err
	}
	if err := s.Save(next); err != nil {
		return nil, err
	}
	return &ApplyResult{Applied: len(items), Diff: diff}, nil
}

func applyItem(f *File, item plan.Item, now, operator string) error {
	switch item.Action {
	case plan.ActionAdd:
		rec := Record{
			ID:       f.nextRecordID(),
			Box:      item.Box,
			Position: item.Position,
		}
		payloadIntoRecord(item.Payload, &rec)
		if rec.Operator == "" {
			rec.Operator = operator
		}
		f.Records = append(f.Records, rec)

	case plan.ActionMove:
		rec := f.FindRecord(item.RecordID)
		if rec == nil {
			return fmt.Errorf("record %s vanished during apply", item.RecordID)
		}
		rec.Box = item.ToBox
		rec.Position = item.ToPosition

	case plan.ActionTakeout:
		rec := f.FindRecord(item.RecordID)
		if rec == nil {
			return fmt.Errorf("record %s vanished during apply", item.RecordID)
		}
		f.Takeouts = append(f.Takeouts, Takeout{Record: *rec, TakenAt: now, Operator: operator})
		f.removeRecord(item.RecordID)

	case plan.ActionEdit:
		rec := f.FindRecord(item.RecordID)
		if rec == nil {
			return fmt.Errorf("record %s vanished during apply", item.RecordID)
		}
		payloadIntoRecord(item.Payload, rec)

	case plan.ActionRollback:
		entry := f.LastTakeout(item.RecordID)
		if entry == nil {
			return fmt.Errorf("no takeout entry for %s during apply", item.RecordID)
		}
		f.Records = append(f.Records, entry.Record)

	default:
		return fmt.Errorf("unknown action %q during apply", item.Action)
	}
	return nil
}

// payloadIntoRecord copies recognized payload fields onto a record,
// leaving unset fields alone. Unrecognized keys land in Extra.
func payloadIntoRecord(payload map[string]any, rec *Record) {
	for key, value := range payload {
		switch key {
		case "cell_line":
			if s, ok := value.(string); ok {
				rec.CellLine = s
			}
		case "frozen_at":
			if s, ok := value.(string); ok {
				rec.FrozenAt = s
			}
		case "passage":
			switch n := value.(type) {
			case int:
				rec.Passage = n
			case float64:
				rec.Passage = int(n)
			}
		case "operator":
			if s, ok := value.(string); ok {
				rec.Operator = s
			}
		case "note":
			if s, ok := value.(string); ok {
				rec.Note = s
			}
		default:
			if s, ok := value.(string); ok {
				if rec.Extra == nil {
					rec.Extra = make(map[string]string)
				}
				rec.Extra[key] = s
			}
		}
	}
}

func (f *File) removeRecord(id string) {
	for i := range f.Records {
		if f.Records[i].ID == id {
			f.Records = append(f.Records[:i], f.Records[i+1:]...)
			return
		}
	}
}

// nextRecordID allocates the next "S-NNNN" id, scanning both live records
// and the takeout journal so ids are never reused after a takeout.
func (f *File) nextRecordID() string {
	max := 0
	scan := func(id string) {
		var n int
		if _, err := fmt.Sscanf(id, "S-%d", &n); err == nil && n > max {
			max = n
		}
	}
	for _, rec := range f.Records {
		scan(rec.ID)
	}
	for _, t := range f.Takeouts {
		scan(t.Record.ID)
	}
	return fmt.Sprintf("S-%04d", max+1)
}
