package plan

import "fmt"

// ItemReport is the preflight verdict for a single candidate item.
type ItemReport struct {
	Item      Item   `json:"item"`
	OK        bool   `json:"ok"`
	Blocked   bool   `json:"blocked"`
	ErrorCode string `json:"error_code,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Stats summarizes a preflight run.
type Stats struct {
	Total   int `json:"total"`
	OK      int `json:"ok"`
	Blocked int `json:"blocked"`
}

// Report is the structured result of preflighting one candidate batch.
// It is derived state: recompute it whenever the store or the baseline
// changes, never persist it.
type Report struct {
	OK      bool         `json:"ok"`
	Blocked bool         `json:"blocked"`
	Items   []ItemReport `json:"items"`
	Stats   Stats        `json:"stats"`
}

// Finalize fills the aggregate fields from the per-item verdicts.
func (r *Report) Finalize() {
	r.Stats = Stats{Total: len(r.Items)}
	for _, it := range r.Items {
		if it.Blocked {
			r.Stats.Blocked++
		} else {
			r.Stats.OK++
		}
	}
	r.Blocked = r.Stats.Blocked > 0
	r.OK = !r.Blocked
}

// Preflighter dry-run-validates a whole candidate batch against the latest
// on-disk baseline. Implementations must load a fresh baseline on every
// call; the gate never caches one. The report's items correspond 1:1, in
// order, to the given batch.
type Preflighter interface {
	Preflight(items []Item) (*Report, error)
}

// StageResult is the gate's decision for one incoming batch.
type StageResult struct {
	Accepted []Item  // incoming items cleared to join the store
	Blocked  []Item  // incoming items that failed preflight
	Report   *Report // full report over existing+incoming, incoming entries last
}

// Stage validates incoming items together with the already-staged ones and
// decides, atomically, whether the incoming batch may be appended.
//
// The whole candidate batch (existing followed by incoming) is preflighted
// in one pass so interactions between items are caught, e.g. two adds
// aimed at the same empty slot. If any incoming item is blocked, none are
// accepted. Existing items are never evicted here, even if the report now
// flags them: only the incoming batch is gated.
func Stage(existing, incoming []Item, pf Preflighter) (*StageResult, error) {
	candidate := make([]Item, 0, len(existing)+len(incoming))
	candidate = append(candidate, existing...)
	candidate = append(candidate, incoming...)

	report, err := pf.Preflight(candidate)
	if err != nil {
		return nil, fmt.Errorf("preflight failed: %w", err)
	}
	if len(report.Items) != len(candidate) {
		return nil, fmt.Errorf("preflight returned %d verdicts for %d items", len(report.Items), len(candidate))
	}

	res := &StageResult{Report: report}
	for _, ir := range report.Items[len(existing):] {
		if ir.Blocked {
			res.Blocked = append(res.Blocked, ir.Item)
		}
	}
	if len(res.Blocked) == 0 {
		res.Accepted = append(res.Accepted, incoming...)
	}
	return res, nil
}
