package tools

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/coldframe/frost/pkg/inventory"
	"github.com/coldframe/frost/pkg/plan"
)

func testStore(t *testing.T) *inventory.Store {
	t.Helper()
	store := inventory.NewStore(filepath.Join(t.TempDir(), "inventory.yaml"))
	err := store.Save(&inventory.File{
		Boxes: []inventory.Box{{ID: 1, Label: "Dewar A", Rows: 2, Cols: 2}},
		Records: []inventory.Record{
			{ID: "S-0001", CellLine: "K562", Box: 1, Position: 1, Operator: "mk"},
		},
	})
	if err != nil {
		t.Fatalf("failed to seed inventory: %v", err)
	}
	return store
}

func testSuite(t *testing.T) (*Suite, *plan.Store, *inventory.Store) {
	store := testStore(t)
	planStore := plan.NewStore()
	return NewSuite(store, planStore, nil, "mk"), planStore, store
}

func addItem(box, pos int, cellLine string) map[string]any {
	return map[string]any{
		"action":   "add",
		"box":      float64(box),
		"position": float64(pos),
		"payload":  map[string]any{"cell_line": cellLine},
	}
}

func TestSuiteRegistration(t *testing.T) {
	suite, _, _ := testSuite(t)

	names := suite.ListTools()
	want := []string{
		"search_records", "get_record", "list_boxes", "box_layout",
		"add_plan_items", "list_plan_items", "remove_plan_items",
		"clear_plan", "commit_plan",
	}
	if len(names) != len(want) {
		t.Fatalf("tool count = %d, want %d", len(names), len(want))
	}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("tool[%d] = %q, want %q", i, names[i], name)
		}
	}

	if len(suite.ToolSchemas()) != len(want) {
		t.Error("schema count mismatch")
	}
	specs := suite.ToolSpecs()
	if specs["add_plan_items"].Enums["action"] == nil {
		t.Error("add_plan_items spec lacks action enum")
	}
}

func TestAddPlanItemsStagesValidBatch(t *testing.T) {
	suite, planStore, _ := testSuite(t)

	obs := suite.Run("add_plan_items", map[string]any{
		"items": []any{addItem(1, 2, "HeLa")},
	}, "t1")

	if !obs.OK {
		t.Fatalf("observation not ok: %+v", obs)
	}
	if planStore.Count() != 1 {
		t.Errorf("plan count = %d, want 1", planStore.Count())
	}
}

func TestAddPlanItemsDuplicateSlotRejected(t *testing.T) {
	suite, planStore, _ := testSuite(t)

	if obs := suite.Run("add_plan_items", map[string]any{
		"items": []any{addItem(1, 2, "HeLa")},
	}, "t1"); !obs.OK {
		t.Fatalf("first staging failed: %+v", obs)
	}

	// A second add aimed at the same empty slot must be rejected whole.
	obs := suite.Run("add_plan_items", map[string]any{
		"items": []any{addItem(1, 2, "Jurkat")},
	}, "t1")

	if obs.OK {
		t.Fatal("conflicting batch was accepted")
	}
	if obs.ErrorCode != CodePreflightFailed {
		t.Errorf("error_code = %q, want plan_preflight_failed", obs.ErrorCode)
	}
	if planStore.Count() != 1 {
		t.Errorf("plan count = %d, want 1", planStore.Count())
	}
}

func TestAddPlanItemsAtomicBatch(t *testing.T) {
	suite, planStore, _ := testSuite(t)

	// One valid item plus one aimed at a nonexistent box: neither lands.
	obs := suite.Run("add_plan_items", map[string]any{
		"items": []any{addItem(1, 3, "HeLa"), addItem(99, 1, "Jurkat")},
	}, "t1")

	if obs.OK {
		t.Fatal("partially invalid batch was accepted")
	}
	if planStore.Count() != 0 {
		t.Errorf("plan count = %d, want 0", planStore.Count())
	}
	if obs.Hint == "" {
		t.Error("blocked batch carries no hint")
	}
}

func TestAddPlanItemsShapeViolationCode(t *testing.T) {
	suite, _, _ := testSuite(t)

	// add without a payload fails the schema, not the semantics.
	obs := suite.Run("add_plan_items", map[string]any{
		"items": []any{map[string]any{
			"action": "add", "box": float64(1), "position": float64(2),
		}},
	}, "t1")

	if obs.OK {
		t.Fatal("schema-invalid batch was accepted")
	}
	if obs.ErrorCode != inventory.CodeInvalidInput {
		t.Errorf("error_code = %q, want invalid_tool_input", obs.ErrorCode)
	}
}

func TestPlanListRemoveClear(t *testing.T) {
	suite, planStore, _ := testSuite(t)

	suite.Run("add_plan_items", map[string]any{
		"items": []any{addItem(1, 2, "HeLa"), addItem(1, 3, "Jurkat")},
	}, "t1")
	if planStore.Count() != 2 {
		t.Fatalf("plan count = %d, want 2", planStore.Count())
	}

	obs := suite.Run("list_plan_items", nil, "t1")
	if !obs.OK {
		t.Fatalf("list failed: %+v", obs)
	}

	obs = suite.Run("remove_plan_items", map[string]any{
		"indices": []any{float64(0)},
	}, "t1")
	if !obs.OK || planStore.Count() != 1 {
		t.Errorf("remove failed: %+v, count = %d", obs, planStore.Count())
	}

	obs = suite.Run("clear_plan", nil, "t1")
	if !obs.OK || planStore.Count() != 0 {
		t.Errorf("clear failed: %+v, count = %d", obs, planStore.Count())
	}
}

func TestCommitPlanAppliesAndClears(t *testing.T) {
	suite, planStore, store := testSuite(t)

	suite.Run("add_plan_items", map[string]any{
		"items": []any{addItem(1, 2, "HeLa")},
	}, "t1")

	obs := suite.Run("commit_plan", nil, "t1")
	if !obs.OK {
		t.Fatalf("commit failed: %+v", obs)
	}
	if planStore.Count() != 0 {
		t.Errorf("plan count after commit = %d, want 0", planStore.Count())
	}

	f, err := store.Load()
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if len(f.Records) != 2 {
		t.Fatalf("record count = %d, want 2", len(f.Records))
	}
	added := f.Records[1]
	if added.CellLine != "HeLa" || added.Box != 1 || added.Position != 2 {
		t.Errorf("added record = %+v", added)
	}
	if added.ID != "S-0002" {
		t.Errorf("added record id = %q, want S-0002", added.ID)
	}
	if added.Operator != "mk" {
		t.Errorf("operator = %q, want mk", added.Operator)
	}
}

func TestCommitPlanRejectsStalePlan(t *testing.T) {
	suite, planStore, store := testSuite(t)

	suite.Run("add_plan_items", map[string]any{
		"items": []any{addItem(1, 2, "HeLa")},
	}, "t1")

	// The slot gets taken behind the plan's back.
	f, err := store.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	f.Records = append(f.Records, inventory.Record{ID: "S-0099", CellLine: "Jurkat", Box: 1, Position: 2})
	if err := store.Save(f); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	obs := suite.Run("commit_plan", nil, "t1")
	if obs.OK {
		t.Fatal("stale plan committed")
	}
	if planStore.Count() != 1 {
		t.Errorf("plan count = %d, want 1 (plan kept for correction)", planStore.Count())
	}

	reloaded, _ := store.Load()
	if len(reloaded.Records) != 2 {
		t.Errorf("record count = %d, commit was not all-or-nothing", len(reloaded.Records))
	}
}

func TestCommitPlanEmptyPlan(t *testing.T) {
	suite, _, _ := testSuite(t)
	obs := suite.Run("commit_plan", nil, "t1")
	if obs.OK || obs.ErrorCode != "plan_empty" {
		t.Errorf("observation = %+v, want plan_empty failure", obs)
	}
}

func TestCommitPlanConfirmerRejection(t *testing.T) {
	store := testStore(t)
	planStore := plan.NewStore()
	confirmer := NewConfirmer()
	confirmer.SetNotifier(func(CommitPrompt) {
		confirmer.Respond(false)
	})
	suite := NewSuite(store, planStore, confirmer, "mk")

	suite.Run("add_plan_items", map[string]any{
		"items": []any{addItem(1, 2, "HeLa")},
	}, "t1")

	obs := suite.Run("commit_plan", nil, "t1")
	if obs.OK || obs.ErrorCode != CodeCommitRejected {
		t.Errorf("observation = %+v, want commit_rejected", obs)
	}
	if planStore.Count() != 1 {
		t.Errorf("plan count = %d, want 1", planStore.Count())
	}

	f, _ := store.Load()
	if len(f.Records) != 1 {
		t.Errorf("record count = %d, inventory was written", len(f.Records))
	}
}

func TestSearchRecords(t *testing.T) {
	suite, _, _ := testSuite(t)

	obs := suite.Run("search_records", map[string]any{"query": "k562"}, "t1")
	if !obs.OK {
		t.Fatalf("search failed: %+v", obs)
	}
	result := obs.Result.(map[string]any)
	if result["count"] != 1 {
		t.Errorf("count = %v, want 1", result["count"])
	}

	obs = suite.Run("search_records", map[string]any{"query": "nonexistent"}, "t1")
	if !obs.OK {
		t.Fatalf("empty search should still be ok: %+v", obs)
	}
	if obs.Hint == "" {
		t.Error("empty result carries no hint")
	}
}

func TestBoxLayout(t *testing.T) {
	suite, _, _ := testSuite(t)

	obs := suite.Run("box_layout", map[string]any{"box": float64(1)}, "t1")
	if !obs.OK {
		t.Fatalf("layout failed: %+v", obs)
	}
	result := obs.Result.(map[string]any)
	free := result["free"].([]int)
	if len(free) != 3 {
		t.Errorf("free positions = %v, want 3 entries", free)
	}

	obs = suite.Run("box_layout", map[string]any{"box": float64(9)}, "t1")
	if obs.OK || obs.ErrorCode != inventory.CodeBoxNotFound {
		t.Errorf("observation = %+v, want box_not_found", obs)
	}
}

func TestGetRecord(t *testing.T) {
	suite, _, _ := testSuite(t)

	obs := suite.Run("get_record", map[string]any{"record_id": "S-0001"}, "t1")
	if !obs.OK {
		t.Fatalf("get failed: %+v", obs)
	}

	obs = suite.Run("get_record", map[string]any{"record_id": "S-9999"}, "t1")
	if obs.OK || obs.ErrorCode != inventory.CodeRecordNotFound {
		t.Errorf("observation = %+v, want record_not_found", obs)
	}
	if !strings.Contains(obs.Hint, "search_records") {
		t.Errorf("hint = %q", obs.Hint)
	}
}
