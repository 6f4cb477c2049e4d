package tools

import (
	"fmt"

	"github.com/coldframe/frost/pkg/core"
	"github.com/coldframe/frost/pkg/inventory"
)

// ListBoxesTool reports every box with its fill level.
type ListBoxesTool struct {
	store *inventory.Store
}

func (t *ListBoxesTool) Name() string { return "list_boxes" }

func (t *ListBoxesTool) Description() string {
	return "List all storage boxes with their size and how many positions are occupied."
}

func (t *ListBoxesTool) Parameters() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func (t *ListBoxesTool) Spec() core.ToolSpec {
	return core.ToolSpec{Name: t.Name(), Description: t.Description()}
}

func (t *ListBoxesTool) Run(args map[string]any, traceID string) core.Observation {
	f, err := t.store.Load()
	if err != nil {
		return failure("inventory_unavailable", err.Error(), "")
	}

	occupied := make(map[int]int)
	for _, rec := range f.Records {
		occupied[rec.Box]++
	}

	type boxInfo struct {
		ID       int    `json:"id"`
		Label    string `json:"label,omitempty"`
		Capacity int    `json:"capacity"`
		Occupied int    `json:"occupied"`
		Free     int    `json:"free"`
	}
	boxes := make([]boxInfo, 0, len(f.Boxes))
	for _, box := range f.Boxes {
		cap := box.Capacity()
		boxes = append(boxes, boxInfo{
			ID:       box.ID,
			Label:    box.Label,
			Capacity: cap,
			Occupied: occupied[box.ID],
			Free:     cap - occupied[box.ID],
		})
	}
	return success(map[string]any{"count": len(boxes), "boxes": boxes})
}

// BoxLayoutTool reports position-level occupancy of one box.
type BoxLayoutTool struct {
	store *inventory.Store
}

func (t *BoxLayoutTool) Name() string { return "box_layout" }

func (t *BoxLayoutTool) Description() string {
	return "Show which positions of a box are occupied by which record, and which are free."
}

func (t *BoxLayoutTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"box": map[string]any{"type": "integer"},
		},
		"required": []any{"box"},
	}
}

func (t *BoxLayoutTool) Spec() core.ToolSpec {
	return core.ToolSpec{
		Name:        t.Name(),
		Description: t.Description(),
		Required:    []string{"box"},
	}
}

func (t *BoxLayoutTool) Run(args map[string]any, traceID string) core.Observation {
	boxID, ok := intArg(args, "box")
	if !ok {
		return failure(inventory.CodeInvalidInput, "box is required",
			"pass the box number as {\"box\": 1}")
	}

	f, err := t.store.Load()
	if err != nil {
		return failure("inventory_unavailable", err.Error(), "")
	}

	box := f.FindBox(boxID)
	if box == nil {
		return failure(inventory.CodeBoxNotFound,
			fmt.Sprintf("box %d does not exist", boxID),
			"use list_boxes to see valid box numbers")
	}

	positions := make(map[int]string)
	for _, rec := range f.Records {
		if rec.Box == boxID {
			positions[rec.Position] = rec.ID
		}
	}

	type slotInfo struct {
		Position int    `json:"position"`
		RecordID string `json:"record_id,omitempty"`
		CellLine string `json:"cell_line,omitempty"`
	}
	var taken []slotInfo
	var free []int
	for pos := 1; pos <= box.Capacity(); pos++ {
		if id, ok := positions[pos]; ok {
			info := slotInfo{Position: pos, RecordID: id}
			if rec := f.FindRecord(id); rec != nil {
				info.CellLine = rec.CellLine
			}
			taken = append(taken, info)
		} else {
			free = append(free, pos)
		}
	}

	return success(map[string]any{
		"box":      box,
		"capacity": box.Capacity(),
		"occupied": taken,
		"free":     free,
	})
}
