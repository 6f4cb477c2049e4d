package tools

import (
	"encoding/json"
	"fmt"

	"github.com/coldframe/frost/pkg/core"
	"github.com/coldframe/frost/pkg/inventory"
	"github.com/coldframe/frost/pkg/plan"
)

// CodePreflightFailed marks a batch rejected for semantic reasons, as
// opposed to schema-shape violations reported as invalid_tool_input.
const CodePreflightFailed = "plan_preflight_failed"

var planItemEnums = map[string][]string{
	"action": actionNames(),
}

func actionNames() []string {
	names := make([]string, 0, len(plan.ValidActions))
	for _, a := range plan.ValidActions {
		names = append(names, string(a))
	}
	return names
}

// AddPlanItemsTool stages new write operations through the gate. The
// incoming batch is validated together with already-staged items against
// the current inventory; if any incoming item is blocked, none are staged.
type AddPlanItemsTool struct {
	planStore *plan.Store
	validator *inventory.Validator
}

func (t *AddPlanItemsTool) Name() string { return "add_plan_items" }

func (t *AddPlanItemsTool) Description() string {
	return "Stage one or more inventory operations (add, move, takeout, edit, rollback) as pending plan items. Nothing is written until the plan is committed. The whole batch is rejected if any item fails validation."
}

func (t *AddPlanItemsTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"action":      map[string]any{"type": "string", "enum": []any{"add", "move", "takeout", "edit", "rollback"}},
						"record_id":   map[string]any{"type": "string"},
						"box":         map[string]any{"type": "integer"},
						"position":    map[string]any{"type": "integer"},
						"to_box":      map[string]any{"type": "integer"},
						"to_position": map[string]any{"type": "integer"},
						"payload":     map[string]any{"type": "object"},
					},
					"required": []any{"action"},
				},
			},
		},
		"required": []any{"items"},
	}
}

func (t *AddPlanItemsTool) Spec() core.ToolSpec {
	return core.ToolSpec{
		Name:        t.Name(),
		Description: t.Description(),
		Required:    []string{"items"},
		Enums:       planItemEnums,
	}
}

func (t *AddPlanItemsTool) Run(args map[string]any, traceID string) core.Observation {
	incoming, err := decodeItems(args["items"])
	if err != nil {
		return failure(inventory.CodeInvalidInput, err.Error(),
			"items must be an array of plan item objects, each with an action field")
	}
	if len(incoming) == 0 {
		return failure(inventory.CodeInvalidInput, "items is empty", "")
	}
	for i := range incoming {
		if incoming[i].Source == "" {
			incoming[i].Source = plan.SourceAgent
		}
	}

	res, err := plan.Stage(t.planStore.Items(), incoming, t.validator)
	if err != nil {
		return failure("inventory_unavailable", err.Error(), "")
	}

	if len(res.Blocked) > 0 {
		code := CodePreflightFailed
		for _, ir := range res.Report.Items {
			if ir.Blocked && ir.ErrorCode == inventory.CodeInvalidInput {
				code = inventory.CodeInvalidInput
				break
			}
		}
		return core.Observation{
			OK:        false,
			ErrorCode: code,
			Message:   fmt.Sprintf("%d of %d incoming items were blocked; nothing was staged", len(res.Blocked), len(incoming)),
			Hint:      "fix every blocked item and resubmit the whole batch; per-item reasons are in result.report",
			Result:    map[string]any{"report": res.Report},
		}
	}

	added := t.planStore.Add(res.Accepted)
	return success(map[string]any{
		"staged":     added,
		"plan_count": t.planStore.Count(),
		"report":     res.Report,
	})
}

// decodeItems converts the raw argument value into plan items via a JSON
// round trip, so item shapes are parsed exactly as the wire format would.
func decodeItems(raw any) ([]plan.Item, error) {
	if raw == nil {
		return nil, fmt.Errorf("items is required")
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("items could not be serialized: %v", err)
	}
	var items []plan.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("items is not an array of plan items: %v", err)
	}
	return items, nil
}

// ListPlanItemsTool reads the pending plan.
type ListPlanItemsTool struct {
	planStore *plan.Store
}

func (t *ListPlanItemsTool) Name() string { return "list_plan_items" }

func (t *ListPlanItemsTool) Description() string {
	return "List the currently staged plan items with their zero-based indices."
}

func (t *ListPlanItemsTool) Parameters() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func (t *ListPlanItemsTool) Spec() core.ToolSpec {
	return core.ToolSpec{Name: t.Name(), Description: t.Description()}
}

func (t *ListPlanItemsTool) Run(args map[string]any, traceID string) core.Observation {
	items := t.planStore.Items()
	summaries := make([]map[string]any, 0, len(items))
	for i, item := range items {
		summaries = append(summaries, map[string]any{
			"index":       i,
			"description": item.String(),
			"item":        item,
		})
	}
	return success(map[string]any{"count": len(items), "items": summaries})
}

// RemovePlanItemsTool drops staged items by index.
type RemovePlanItemsTool struct {
	planStore *plan.Store
}

func (t *RemovePlanItemsTool) Name() string { return "remove_plan_items" }

func (t *RemovePlanItemsTool) Description() string {
	return "Remove staged plan items by their zero-based indices."
}

func (t *RemovePlanItemsTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"indices": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "integer"},
			},
		},
		"required": []any{"indices"},
	}
}

func (t *RemovePlanItemsTool) Spec() core.ToolSpec {
	return core.ToolSpec{
		Name:        t.Name(),
		Description: t.Description(),
		Required:    []string{"indices"},
	}
}

func (t *RemovePlanItemsTool) Run(args map[string]any, traceID string) core.Observation {
	raw, ok := args["indices"].([]any)
	if !ok {
		return failure(inventory.CodeInvalidInput, "indices is required",
			"pass indices as {\"indices\": [0, 2]}")
	}
	indices := make([]int, 0, len(raw))
	for _, v := range raw {
		if n, ok := v.(float64); ok {
			indices = append(indices, int(n))
		}
	}

	removed := t.planStore.RemoveByIndices(indices)
	return success(map[string]any{
		"removed":    removed,
		"plan_count": t.planStore.Count(),
	})
}

// ClearPlanTool drops every staged item.
type ClearPlanTool struct {
	planStore *plan.Store
}

func (t *ClearPlanTool) Name() string { return "clear_plan" }

func (t *ClearPlanTool) Description() string {
	return "Discard all staged plan items without applying them."
}

func (t *ClearPlanTool) Parameters() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func (t *ClearPlanTool) Spec() core.ToolSpec {
	return core.ToolSpec{Name: t.Name(), Description: t.Description()}
}

func (t *ClearPlanTool) Run(args map[string]any, traceID string) core.Observation {
	cleared := t.planStore.Clear()
	return success(map[string]any{"cleared": cleared})
}
