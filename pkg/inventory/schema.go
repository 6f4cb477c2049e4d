package inventory

import (
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/coldframe/frost/pkg/plan"
)

// Per-action JSON Schemas for staged plan items. These catch shape-level
// problems (wrong types, unknown enum values, missing required fields)
// before any semantic checks run, so the two failure classes stay separable.
const (
	addItemSchema = `{
  "type": "object",
  "properties": {
    "action": {"const": "add"},
    "box": {"type": "integer", "minimum": 1},
    "position": {"type": "integer", "minimum": 1},
    "payload": {
      "type": "object",
      "properties": {
        "cell_line": {"type": "string", "minLength": 1},
        "frozen_at": {"type": "string"},
        "passage": {"type": "integer", "minimum": 0},
        "operator": {"type": "string"},
        "note": {"type": "string"}
      },
      "required": ["cell_line"]
    },
    "source": {"enum": ["human", "agent", "context_menu", "overview_drag"]}
  },
  "required": ["action", "box", "position", "payload"]
}`

	moveItemSchema = `{
  "type": "object",
  "properties": {
    "action": {"const": "move"},
    "record_id": {"type": "string", "minLength": 1},
    "to_box": {"type": "integer", "minimum": 1},
    "to_position": {"type": "integer", "minimum": 1},
    "source": {"enum": ["human", "agent", "context_menu", "overview_drag"]}
  },
  "required": ["action", "record_id", "to_box", "to_position"]
}`

	takeoutItemSchema = `{
  "type": "object",
  "properties": {
    "action": {"const": "takeout"},
    "record_id": {"type": "string", "minLength": 1},
    "source": {"enum": ["human", "agent", "context_menu", "overview_drag"]}
  },
  "required": ["action", "record_id"]
}`

	editItemSchema = `{
  "type": "object",
  "properties": {
    "action": {"const": "edit"},
    "record_id": {"type": "string", "minLength": 1},
    "payload": {
      "type": "object",
      "properties": {
        "cell_line": {"type": "string", "minLength": 1},
        "frozen_at": {"type": "string"},
        "passage": {"type": "integer", "minimum": 0},
        "operator": {"type": "string"},
        "note": {"type": "string"}
      },
      "minProperties": 1
    },
    "source": {"enum": ["human", "agent", "context_menu", "overview_drag"]}
  },
  "required": ["action", "record_id", "payload"]
}`

	rollbackItemSchema = `{
  "type": "object",
  "properties": {
    "action": {"const": "rollback"},
    "record_id": {"type": "string", "minLength": 1},
    "source": {"enum": ["human", "agent", "context_menu", "overview_drag"]}
  },
  "required": ["action", "record_id"]
}`
)

var (
	schemaOnce     sync.Once
	schemaByAction map[plan.Action]*gojsonschema.Schema
	schemaInitErr  error
)

func compiledSchemas() (map[plan.Action]*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		sources := map[plan.Action]string{
			plan.ActionAdd:      addItemSchema,
			plan.ActionMove:     moveItemSchema,
			plan.ActionTakeout:  takeoutItemSchema,
			plan.ActionEdit:     editItemSchema,
			plan.ActionRollback: rollbackItemSchema,
		}
		schemaByAction = make(map[plan.Action]*gojsonschema.Schema, len(sources))
		for action, src := range sources {
			schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
			if err != nil {
				schemaInitErr = fmt.Errorf("compile %s item schema: %w", action, err)
				return
			}
			schemaByAction[action] = schema
		}
	})
	return schemaByAction, schemaInitErr
}

// validateShape runs the action's JSON Schema over the item. It returns a
// human-readable description of the first violation, or "" when the shape
// is valid.
func validateShape(item plan.Item) (string, error) {
	schemas, err := compiledSchemas()
	if err != nil {
		return "", err
	}
	schema, ok := schemas[item.Action]
	if !ok {
		return fmt.Sprintf("unknown action %q", item.Action), nil
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(item))
	if err != nil {
		return "", fmt.Errorf("schema validation: %w", err)
	}
	if result.Valid() {
		return "", nil
	}
	first := result.Errors()[0]
	return fmt.Sprintf("%s: %s", first.Field(), first.Description()), nil
}
