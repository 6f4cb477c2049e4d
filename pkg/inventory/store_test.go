package inventory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldframe/frost/pkg/plan"
)

func seededStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "inventory.yaml"))
	require.NoError(t, store.Save(testBaseline().File))
	return store
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	store := seededStore(t)

	f, err := store.Load()
	require.NoError(t, err)
	require.Len(t, f.Records, 1)
	assert.Equal(t, "S-0001", f.Records[0].ID)
	assert.Equal(t, "K562", f.Records[0].CellLine)
	require.Len(t, f.Boxes, 1)
	assert.Equal(t, 4, f.Boxes[0].Capacity())
	require.Len(t, f.Takeouts, 1)
	assert.Equal(t, "S-0002", f.Takeouts[0].Record.ID)
}

func TestStoreLoadMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "absent.yaml"))
	f, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, f.Records)
	assert.Empty(t, f.Boxes)
}

func TestStoreSaveBacksUpPrevious(t *testing.T) {
	store := seededStore(t)

	f, _ := store.Load()
	f.Records[0].Note = "thawed once"
	require.NoError(t, store.Save(f))

	backupDir := filepath.Join(filepath.Dir(store.Path()), "backups")
	entries, err := os.ReadDir(backupDir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries, "second save must back up the previous file")

	// No temp file left behind after an atomic save.
	_, err = os.Stat(store.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestStoreDiff(t *testing.T) {
	store := seededStore(t)

	f, _ := store.Load()
	f.Records[0].Box = 1
	f.Records[0].Position = 2
	diff, err := store.Diff(f)
	require.NoError(t, err)
	assert.Contains(t, diff, "position: 2")
	assert.Contains(t, diff, "position: 1")
}

func TestApplyAdd(t *testing.T) {
	store := seededStore(t)

	res, err := store.Apply([]plan.Item{{
		Action: plan.ActionAdd, Box: 1, Position: 2,
		Payload: map[string]any{"cell_line": "Jurkat", "passage": float64(7), "freezer_rack": "R2"},
	}}, "mk")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Applied)
	assert.NotEmpty(t, res.Diff)

	f, _ := store.Load()
	require.Len(t, f.Records, 2)
	added := f.Records[1]
	assert.Equal(t, "S-0003", added.ID, "takeout journal ids must not be reused")
	assert.Equal(t, "Jurkat", added.CellLine)
	assert.Equal(t, 7, added.Passage)
	assert.Equal(t, "mk", added.Operator)
	assert.Equal(t, "R2", added.Extra["freezer_rack"])
}

func TestApplyMoveAndEdit(t *testing.T) {
	store := seededStore(t)

	_, err := store.Apply([]plan.Item{
		{Action: plan.ActionMove, RecordID: "S-0001", ToBox: 1, ToPosition: 4},
		{Action: plan.ActionEdit, RecordID: "S-0001", Payload: map[string]any{"note": "passaged"}},
	}, "mk")
	require.NoError(t, err)

	f, _ := store.Load()
	rec := f.FindRecord("S-0001")
	require.NotNil(t, rec)
	assert.Equal(t, 4, rec.Position)
	assert.Equal(t, "passaged", rec.Note)
	assert.Equal(t, "K562", rec.CellLine, "edit must leave untouched fields alone")
}

func TestApplyTakeoutAndRollback(t *testing.T) {
	store := seededStore(t)

	_, err := store.Apply([]plan.Item{{Action: plan.ActionTakeout, RecordID: "S-0001"}}, "mk")
	require.NoError(t, err)

	f, _ := store.Load()
	assert.Nil(t, f.FindRecord("S-0001"))
	entry := f.LastTakeout("S-0001")
	require.NotNil(t, entry)
	assert.Equal(t, "mk", entry.Operator)
	assert.NotEmpty(t, entry.TakenAt)

	_, err = store.Apply([]plan.Item{{Action: plan.ActionRollback, RecordID: "S-0001"}}, "mk")
	require.NoError(t, err)

	f, _ = store.Load()
	rec := f.FindRecord("S-0001")
	require.NotNil(t, rec)
	assert.Equal(t, 1, rec.Position, "rollback restores the original slot")
}

func TestApplyRejectsStaleBatchWholesale(t *testing.T) {
	store := seededStore(t)

	// Second item collides with the existing record, so the first item
	// must not be written either.
	_, err := store.Apply([]plan.Item{
		{Action: plan.ActionAdd, Box: 1, Position: 2, Payload: map[string]any{"cell_line": "Jurkat"}},
		{Action: plan.ActionAdd, Box: 1, Position: 1, Payload: map[string]any{"cell_line": "HeLa"}},
	}, "mk")
	require.Error(t, err)
	assert.Contains(t, err.Error(), CodeSlotOccupied)

	f, _ := store.Load()
	assert.Len(t, f.Records, 1, "nothing may be written when any item is blocked")
}

func TestApplyEmptyPlan(t *testing.T) {
	store := seededStore(t)
	res, err := store.Apply(nil, "mk")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Applied)
}

func TestNextRecordID(t *testing.T) {
	f := &File{}
	assert.Equal(t, "S-0001", f.nextRecordID())

	f.Records = append(f.Records, Record{ID: "S-0005"})
	f.Takeouts = append(f.Takeouts, Takeout{Record: Record{ID: "S-0011"}})
	assert.Equal(t, "S-0012", f.nextRecordID())

	f.Records = append(f.Records, Record{ID: "legacy-7"})
	assert.Equal(t, "S-0012", f.nextRecordID(), "ids outside the scheme are ignored")
}
