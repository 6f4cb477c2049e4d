// Package plan holds the pending-write queue for the inventory: staged
// operation items, the ordered store they live in, and the atomic gate that
// decides whether a new batch may join them.
package plan

import "fmt"

// Action is the kind of inventory mutation an item proposes.
type Action string

const (
	ActionAdd      Action = "add"
	ActionMove     Action = "move"
	ActionTakeout  Action = "takeout"
	ActionEdit     Action = "edit"
	ActionRollback Action = "rollback"
)

// ValidActions lists every recognized action, in display order.
var ValidActions = []Action{ActionAdd, ActionMove, ActionTakeout, ActionEdit, ActionRollback}

// KnownAction reports whether a is one of the recognized actions.
func KnownAction(a Action) bool {
	for _, v := range ValidActions {
		if v == a {
			return true
		}
	}
	return false
}

// Source records which surface created an item.
type Source string

const (
	SourceHuman        Source = "human"
	SourceAgent        Source = "agent"
	SourceContextMenu  Source = "context_menu"
	SourceOverviewDrag Source = "overview_drag"
)

// Item is one staged inventory operation. It is created by a UI or agent
// action, validated by the gate, and sits in the store until removed,
// cleared, or committed.
type Item struct {
	Action     Action         `json:"action" yaml:"action"`
	RecordID   string         `json:"record_id,omitempty" yaml:"record_id,omitempty"`
	Box        int            `json:"box,omitempty" yaml:"box,omitempty"`
	Position   int            `json:"position,omitempty" yaml:"position,omitempty"`
	ToBox      int            `json:"to_box,omitempty" yaml:"to_box,omitempty"`
	ToPosition int            `json:"to_position,omitempty" yaml:"to_position,omitempty"`
	Payload    map[string]any `json:"payload,omitempty" yaml:"payload,omitempty"`
	Source     Source         `json:"source,omitempty" yaml:"source,omitempty"`
}

// Key is the identity tuple used for duplicate and conflict detection.
// Two items with equal keys are the same pending operation.
type Key struct {
	Action     Action
	RecordID   string
	Position   int
	ToPosition int
	ToBox      int
}

// Key returns the item's identity tuple.
func (i Item) Key() Key {
	return Key{
		Action:     i.Action,
		RecordID:   i.RecordID,
		Position:   i.Position,
		ToPosition: i.ToPosition,
		ToBox:      i.ToBox,
	}
}

// String renders a short operator-facing description of the item.
func (i Item) String() string {
	switch i.Action {
	case ActionAdd:
		line := ""
		if i.Payload != nil {
			if cl, ok := i.Payload["cell_line"].(string); ok {
				line = cl + " "
			}
		}
		return fmt.Sprintf("add %s@ box %d pos %d", line, i.Box, i.Position)
	case ActionMove:
		return fmt.Sprintf("move %s -> box %d pos %d", i.RecordID, i.ToBox, i.ToPosition)
	case ActionTakeout:
		return fmt.Sprintf("takeout %s", i.RecordID)
	case ActionEdit:
		return fmt.Sprintf("edit %s", i.RecordID)
	case ActionRollback:
		return fmt.Sprintf("rollback %s", i.RecordID)
	default:
		return fmt.Sprintf("%s %s", i.Action, i.RecordID)
	}
}
