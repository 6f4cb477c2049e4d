package tools

import (
	"fmt"

	"github.com/coldframe/frost/pkg/core"
	"github.com/coldframe/frost/pkg/inventory"
	"github.com/coldframe/frost/pkg/plan"
)

// CommitRejected marks a commit the user declined.
const CodeCommitRejected = "commit_rejected"

// CommitPlanTool applies the staged plan to the inventory file. The plan
// is re-validated against the current on-disk state first; a user
// confirmation gate sits in front of the write when a confirmer is set.
type CommitPlanTool struct {
	store     *inventory.Store
	planStore *plan.Store
	confirmer *Confirmer
	operator  string
}

func (t *CommitPlanTool) Name() string { return "commit_plan" }

func (t *CommitPlanTool) Description() string {
	return "Apply all staged plan items to the inventory file. Asks the operator for confirmation first. The plan is cleared after a successful commit."
}

func (t *CommitPlanTool) Parameters() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func (t *CommitPlanTool) Spec() core.ToolSpec {
	return core.ToolSpec{Name: t.Name(), Description: t.Description()}
}

func (t *CommitPlanTool) Run(args map[string]any, traceID string) core.Observation {
	items := t.planStore.Items()
	if len(items) == 0 {
		return failure("plan_empty", "there are no staged plan items",
			"stage operations with add_plan_items before committing")
	}

	if t.confirmer != nil {
		descriptions := make([]string, 0, len(items))
		for _, item := range items {
			descriptions = append(descriptions, item.String())
		}
		approved := t.confirmer.Request(CommitPrompt{
			Items:        len(items),
			Descriptions: descriptions,
		})
		if !approved {
			return failure(CodeCommitRejected,
				"the operator declined the commit; the plan is unchanged",
				"ask the operator what to adjust, or clear the plan")
		}
	}

	result, err := t.store.Apply(items, t.operator)
	if err != nil {
		return failure(CodePreflightFailed,
			fmt.Sprintf("commit aborted, nothing was written: %v", err),
			"the inventory changed since staging; re-stage the plan against the current state")
	}

	t.planStore.Clear()
	return success(map[string]any{
		"applied": result.Applied,
		"diff":    result.Diff,
	})
}
