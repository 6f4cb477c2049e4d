package tools

import (
	"fmt"
	"strings"

	"github.com/coldframe/frost/pkg/core"
	"github.com/coldframe/frost/pkg/inventory"
)

// SearchRecordsTool finds stored records by free text and field filters.
type SearchRecordsTool struct {
	store *inventory.Store
}

func (t *SearchRecordsTool) Name() string { return "search_records" }

func (t *SearchRecordsTool) Description() string {
	return "Search stored sample records by free text, cell line, box, or operator. Returns matching records with their positions."
}

func (t *SearchRecordsTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query":     map[string]any{"type": "string", "description": "free text matched against id, cell line, operator and note"},
			"cell_line": map[string]any{"type": "string"},
			"box":       map[string]any{"type": "integer"},
			"operator":  map[string]any{"type": "string"},
		},
	}
}

func (t *SearchRecordsTool) Spec() core.ToolSpec {
	return core.ToolSpec{
		Name:        t.Name(),
		Description: t.Description(),
		Optional:    []string{"query", "cell_line", "box", "operator"},
	}
}

func (t *SearchRecordsTool) Run(args map[string]any, traceID string) core.Observation {
	f, err := t.store.Load()
	if err != nil {
		return failure("inventory_unavailable", err.Error(), "")
	}

	query := strings.ToLower(stringArg(args, "query"))
	cellLine := strings.ToLower(stringArg(args, "cell_line"))
	operator := strings.ToLower(stringArg(args, "operator"))
	box, hasBox := intArg(args, "box")

	var matches []inventory.Record
	for _, rec := range f.Records {
		if cellLine != "" && !strings.Contains(strings.ToLower(rec.CellLine), cellLine) {
			continue
		}
		if operator != "" && !strings.Contains(strings.ToLower(rec.Operator), operator) {
			continue
		}
		if hasBox && rec.Box != box {
			continue
		}
		if query != "" && !recordMatches(rec, query) {
			continue
		}
		matches = append(matches, rec)
	}

	if len(matches) == 0 {
		return core.Observation{
			OK:      true,
			Message: "no records matched",
			Hint:    "try a broader query or list_boxes to see what is stored",
			Result:  map[string]any{"count": 0, "records": []inventory.Record{}},
		}
	}
	return success(map[string]any{"count": len(matches), "records": matches})
}

func recordMatches(rec inventory.Record, query string) bool {
	haystack := strings.ToLower(strings.Join([]string{
		rec.ID, rec.CellLine, rec.Operator, rec.Note,
	}, " "))
	return strings.Contains(haystack, query)
}

// GetRecordTool fetches one record by id, including takeout history.
type GetRecordTool struct {
	store *inventory.Store
}

func (t *GetRecordTool) Name() string { return "get_record" }

func (t *GetRecordTool) Description() string {
	return "Fetch a single record by id. Also reports whether the record was taken out."
}

func (t *GetRecordTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"record_id": map[string]any{"type": "string"},
		},
		"required": []any{"record_id"},
	}
}

func (t *GetRecordTool) Spec() core.ToolSpec {
	return core.ToolSpec{
		Name:        t.Name(),
		Description: t.Description(),
		Required:    []string{"record_id"},
	}
}

func (t *GetRecordTool) Run(args map[string]any, traceID string) core.Observation {
	id := stringArg(args, "record_id")
	if id == "" {
		return failure(inventory.CodeInvalidInput, "record_id is required",
			"pass the id as {\"record_id\": \"S-0001\"}")
	}

	f, err := t.store.Load()
	if err != nil {
		return failure("inventory_unavailable", err.Error(), "")
	}

	if rec := f.FindRecord(id); rec != nil {
		return success(map[string]any{"record": rec, "stored": true})
	}
	if entry := f.LastTakeout(id); entry != nil {
		return success(map[string]any{
			"record":   entry.Record,
			"stored":   false,
			"taken_at": entry.TakenAt,
		})
	}
	return failure(inventory.CodeRecordNotFound,
		fmt.Sprintf("record %s does not exist", id),
		"use search_records to find valid record ids")
}
