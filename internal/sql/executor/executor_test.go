package executor

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/flatsql/internal/catalog"
	"github.com/tuannm99/flatsql/internal/engine"
	"github.com/tuannm99/flatsql/internal/history"
	"github.com/tuannm99/flatsql/internal/record"
)

// ---- fakes ----

type fakeRecorder struct {
	entries []history.Entry
	err     error
}

func (f *fakeRecorder) Record(e history.Entry) error {
	f.entries = append(f.entries, e)
	return f.err
}

// ---- helpers ----

func newTestExecutor(t *testing.T, opts ...Option) (*Executor, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "DATABASES")
	s, err := engine.Open(engine.Options{
		Fs:       afero.NewOsFs(),
		Root:     root,
		IDColumn: engine.DefaultIDColumn,
	})
	require.NoError(t, err)
	return New(s, opts...), root
}

func mustRun(t *testing.T, e *Executor, cmds ...string) {
	t.Helper()
	for _, c := range cmds {
		_, err := e.Execute(c)
		require.NoError(t, err, c)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

// dumpTree maps every path under root to its content; directories map to "/".
func dumpTree(t *testing.T, root string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		if info.IsDir() {
			out[rel] = "/"
			return nil
		}
		b, err := os.ReadFile(path)
		out[rel] = string(b)
		return err
	})
	require.NoError(t, err)
	return out
}

// shopItems builds SHOP/ITEMS(ID INTEGER, NAME STRING) with one row and
// leaves ITEMS open.
func shopItems(t *testing.T, e *Executor) {
	t.Helper()
	mustRun(t, e,
		"CREATE SHOP",
		"OPEN SHOP",
		"CREATE ITEMS",
		"ADD FIELDS TO ITEMS(NAME)",
		"CHANGE TYPE ITEMS(NAME) TO STRING",
		"OPEN ITEMS",
		"ADD DATA(1,WIDGET)",
	)
}

// ---- scenarios ----

func TestExecute_CreateAndInsertScenario(t *testing.T) {
	e, root := newTestExecutor(t)

	mustRun(t, e, "CREATE SHOP", "OPEN SHOP", "CREATE ITEMS", "ADD FIELDS TO ITEMS(NAME)", "OPEN ITEMS")
	assert.Equal(t, record.ColInteger, e.S.OpenTable().Columns[1].Type)

	// new fields are INTEGER; NAME has to be retyped to hold text
	res, err := e.Execute("ADD DATA(1,WIDGET)")
	require.Error(t, err)
	assert.Equal(t, "ERROR: Column 'NAME' expects INTEGER", res.Status)

	mustRun(t, e, "BACK", "CHANGE TYPE ITEMS(NAME) TO STRING", "OPEN ITEMS")
	res, err = e.Execute("ADD DATA(1,WIDGET)")
	require.NoError(t, err)
	assert.Equal(t, "1 ROW ADDED", res.Status)
	assert.Equal(t, 1, res.Affected)
	assert.Equal(t, "ADD DATA", res.Command)
	assert.NotEqual(t, uuid.Nil, res.SnapshotID)

	assert.Equal(t, "ID,NAME\n1,WIDGET\n", readFile(t, filepath.Join(root, "SHOP", "ITEMS.csv")))
	assert.Equal(t, []string{"ID", "NAME"}, e.S.OpenTable().ColumnNames())
}

func TestExecute_CreateSuffixesTakenNames(t *testing.T) {
	e, root := newTestExecutor(t)

	mustRun(t, e, "CREATE WIDGET", "CREATE WIDGET", "CREATE A, B, A")

	var names []string
	for _, db := range e.S.Databases() {
		names = append(names, db.Name)
	}
	assert.Equal(t, []string{"WIDGET", "WIDGET_1", "A", "B", "A_1"}, names)
	assert.DirExists(t, filepath.Join(root, "WIDGET_1"))
}

func TestExecute_CreateCountsUnknownDirectoriesAsTaken(t *testing.T) {
	e, root := newTestExecutor(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "GHOST"), 0o755))

	mustRun(t, e, "CREATE GHOST")
	_, found := e.S.Catalog().Database("GHOST_1")
	assert.True(t, found)
}

func TestExecute_SelectProjection(t *testing.T) {
	e, root := newTestExecutor(t)
	shopItems(t, e)

	res, err := e.Execute(`SELECT NAME WHERE ID > 0 AND NAME LIKE "wid"`)
	require.NoError(t, err)
	assert.Equal(t, "1 ROWS FOUND", res.Status)
	assert.Equal(t, []string{"NAME"}, res.Columns)
	assert.Equal(t, [][]string{{"WIDGET"}}, res.Rows)
	assert.Equal(t, "NAME\nWIDGET\n", readFile(t, filepath.Join(root, "RESULT.csv")))
}

func TestExecute_SelectStarClearsResult(t *testing.T) {
	e, root := newTestExecutor(t)
	shopItems(t, e)
	mustRun(t, e, "SELECT ID WHERE ID = 1")
	require.FileExists(t, filepath.Join(root, "RESULT.csv"))
	depth := e.S.Snapshots().Depth()

	res, err := e.Execute("SELECT *")
	require.NoError(t, err)
	assert.Equal(t, "1 ROWS FOUND", res.Status)
	assert.Equal(t, []string{"ID", "NAME"}, res.Columns)
	assert.Equal(t, uuid.Nil, res.SnapshotID)
	assert.Equal(t, depth, e.S.Snapshots().Depth())
	assert.NoFileExists(t, filepath.Join(root, "RESULT.csv"))
}

func TestExecute_SelectUnknownColumn(t *testing.T) {
	e, _ := newTestExecutor(t)
	shopItems(t, e)

	res, err := e.Execute("SELECT PRICE")
	require.Error(t, err)
	assert.Equal(t, "ERROR: Column PRICE does not exist", res.Status)
}

// ---- undo / redo ----

func TestExecute_UndoRedoRoundTrip(t *testing.T) {
	e, root := newTestExecutor(t)
	initialTree := dumpTree(t, root)

	cmds := []string{
		"CREATE SHOP",
		"OPEN SHOP",
		"CREATE ITEMS, ORDERS",
		"ADD FIELDS TO ITEMS(NAME, PRICE)",
		"CHANGE TYPE ITEMS(NAME) TO STRING",
		"OPEN ITEMS",
		"ADD DATA(1,WIDGET,3)",
		"ADD DATA(2,GADGET,4)",
		"SET NAME = BOLT WHERE ID = 2",
		"DELETE ROWS WHERE PRICE < 4",
		"BACK",
		"MOVE FIELD ITEMS(PRICE) TO ID",
		"RENAME ITEMS TO GOODS",
		"DELETE ORDERS",
	}
	mustRun(t, e, cmds...)

	finalTree := dumpTree(t, root)
	finalCatalog := e.S.Catalog().Clone()
	finalLevel := e.S.Level()
	n := e.S.Snapshots().Depth()
	require.Equal(t, 11, n)

	for i := 0; i < n; i++ {
		res, err := e.Execute("UNDO")
		require.NoError(t, err)
		require.Equal(t, "OK", res.Status)
	}
	res, err := e.Execute("UNDO")
	require.NoError(t, err)
	assert.Equal(t, "NOTHING TO UNDO", res.Status)
	assert.True(t, res.NoOp)
	assert.Equal(t, initialTree, dumpTree(t, root))
	assert.Empty(t, e.S.Databases())
	assert.Equal(t, catalog.LevelCatalog, e.S.Level())

	for i := 0; i < n; i++ {
		mustRun(t, e, "REDO")
	}
	res, err = e.Execute("REDO")
	require.NoError(t, err)
	assert.Equal(t, "NOTHING TO REDO", res.Status)

	assert.Equal(t, finalTree, dumpTree(t, root))
	assert.Equal(t, finalCatalog, e.S.Catalog())
	assert.Equal(t, finalLevel, e.S.Level())
	assert.Equal(t, "PRICE,ID,NAME\n4,2,BOLT\n", readFile(t, filepath.Join(root, "SHOP", "GOODS.csv")))
}

func TestExecute_FailedCommandStillCheckpoints(t *testing.T) {
	e, _ := newTestExecutor(t)
	shopItems(t, e)
	before := e.S.Snapshots().Depth()

	_, err := e.Execute("ADD DATA(1)")
	require.Error(t, err)
	assert.Equal(t, before+1, e.S.Snapshots().Depth())
}

func TestExecute_SyntaxErrorCheckpointsBeforeUndo(t *testing.T) {
	e, root := newTestExecutor(t)
	shopItems(t, e)
	path := filepath.Join(root, "SHOP", "ITEMS.csv")
	want := "ID,NAME\n1,WIDGET\n"
	require.Equal(t, want, readFile(t, path))

	for _, cmd := range []string{"SET = 5", "DELETE ROWS", "ADD DATA 1,2"} {
		before := e.S.Snapshots().Depth()
		res, err := e.Execute(cmd)
		require.Error(t, err, cmd)
		assert.Contains(t, res.Status, "INVALID SYNTAX", cmd)
		assert.NotEqual(t, uuid.Nil, res.SnapshotID, cmd)
		assert.Equal(t, before+1, e.S.Snapshots().Depth(), cmd)

		mustRun(t, e, "UNDO")
		assert.Equal(t, want, readFile(t, path), cmd)
		assert.Equal(t, catalog.LevelTable, e.S.Level(), cmd)
	}

	// an unknown keyword is not snapshotted
	before := e.S.Snapshots().Depth()
	_, err := e.Execute("DANCE")
	require.Error(t, err)
	assert.Equal(t, before, e.S.Snapshots().Depth())
}

// ---- integrity ----

func TestExecute_PrimaryKeyDuplicateLeavesFileUnchanged(t *testing.T) {
	e, root := newTestExecutor(t)
	shopItems(t, e)
	mustRun(t, e, "BACK", "PRIMARY KEY ITEMS(ID)", "OPEN ITEMS")
	path := filepath.Join(root, "SHOP", "ITEMS.csv")
	before := readFile(t, path)

	res, err := e.Execute("ADD DATA(1,OTHER)")
	require.Error(t, err)
	assert.Equal(t, "ERROR: Duplicate primary key '1' in column 'ID'", res.Status)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, KindIntegrity, se.Kind)
	assert.Equal(t, before, readFile(t, path))

	res, err = e.Execute("ADD DATA(NONE,OTHER)")
	require.Error(t, err)
	assert.Equal(t, "ERROR: Primary key 'ID' cannot be None", res.Status)
	assert.Equal(t, before, readFile(t, path))
}

func TestExecute_ForeignKeyEnforcement(t *testing.T) {
	e, root := newTestExecutor(t)
	shopItems(t, e)
	mustRun(t, e,
		"BACK",
		"CREATE ORDERS",
		"ADD FIELDS TO ORDERS(ITEM)",
		"FOREIGN KEY ORDERS(ITEM) REFERENCES ITEMS(ID)",
		"OPEN ORDERS",
	)
	path := filepath.Join(root, "SHOP", "ORDERS.csv")
	before := readFile(t, path)

	res, err := e.Execute("ADD DATA(1,99)")
	require.Error(t, err)
	assert.Equal(t, "ERROR: Foreign key '99' does not exist in table 'ITEMS' column 'ID'", res.Status)
	assert.Equal(t, before, readFile(t, path))

	res, err = e.Execute("ADD DATA(1,NONE)")
	require.NoError(t, err)
	assert.Equal(t, "1 ROW ADDED", res.Status)

	mustRun(t, e, "ADD DATA(2,1)")
	assert.Equal(t, "ID,ITEM\n1,\n2,1\n", readFile(t, path))

	res, err = e.Execute("SET ITEM = 7 WHERE ID = 1")
	require.Error(t, err)
	assert.Contains(t, res.Status, "Foreign key '7'")
}

func TestExecute_ForeignKeyTypeMismatchAndDuplicates(t *testing.T) {
	e, _ := newTestExecutor(t)
	shopItems(t, e)
	mustRun(t, e, "BACK", "CREATE ORDERS", "ADD FIELDS TO ORDERS(ITEM)")

	res, err := e.Execute("FOREIGN KEY ORDERS(ITEM) REFERENCES ITEMS(NAME)")
	require.Error(t, err)
	assert.Equal(t, "TYPE MISMATCH", res.Status)

	mustRun(t, e, "FOREIGN KEY ORDERS(ITEM) REFERENCES ITEMS(ID)")
	res, err = e.Execute("FOREIGN KEY ORDERS(ITEM) REFERENCES ITEMS(ID)")
	require.Error(t, err)
	assert.Equal(t, "FOREIGN KEY ALREADY EXISTS", res.Status)

	mustRun(t, e, "CHANGE TYPE ITEMS(ID) TO FLOAT")
	orders, _ := e.S.OpenDatabase().Table("ORDERS")
	assert.Empty(t, orders.ForeignKeys)

	res, err = e.Execute("DROP FOREIGN KEY ORDERS(ITEM)")
	require.Error(t, err)
	assert.Equal(t, "FOREIGN KEY NOT FOUND", res.Status)

	mustRun(t, e, "CHANGE TYPE ITEMS(ID) TO INTEGER", "FOREIGN KEY ORDERS(ITEM) REFERENCES ITEMS(ID)")
	res, err = e.Execute("DROP FOREIGN KEY ORDERS(ITEM)")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Affected)
}

func TestExecute_TypeChecksOnInsert(t *testing.T) {
	e, _ := newTestExecutor(t)
	shopItems(t, e)

	res, err := e.Execute("ADD DATA(X,Y)")
	require.Error(t, err)
	assert.Equal(t, "ERROR: Column 'ID' expects INTEGER", res.Status)

	mustRun(t, e, "BACK", "CHANGE TYPE ITEMS(NAME) TO BOOLEAN", "OPEN ITEMS")
	res, err = e.Execute("ADD DATA(2,maybe)")
	require.Error(t, err)
	assert.Equal(t, "ERROR: Column 'NAME' expects BOOLEAN (true/false)", res.Status)

	mustRun(t, e, "ADD DATA(2,TRUE)")
	assert.Equal(t, record.ColBoolean, e.S.OpenTable().Columns[1].Type)

	res, err = e.Execute("ADD DATA(1,2,3)")
	require.Error(t, err)
	assert.Equal(t, "ERROR: Expected 2 values, got 3", res.Status)
}

func TestExecute_PrimaryKeyToggleValidatesRows(t *testing.T) {
	e, _ := newTestExecutor(t)
	shopItems(t, e)
	mustRun(t, e, "ADD DATA(1,GADGET)", "BACK")
	items, _ := e.S.OpenDatabase().Table("ITEMS")

	res, err := e.Execute("PRIMARY KEY ITEMS(ID)")
	require.Error(t, err)
	assert.Equal(t, "ERROR: Duplicate primary key '1' in column 'ID'", res.Status)
	assert.False(t, items.HasPrimaryKey())

	mustRun(t, e, "PRIMARY KEY ITEMS(NAME)")
	assert.True(t, items.IsPrimaryKey(1))
	mustRun(t, e, "PRIMARY KEY ITEMS(NAME)")
	assert.False(t, items.HasPrimaryKey())
}

func TestExecute_PrimaryKeyOnForeignKeyColumnDropsKey(t *testing.T) {
	e, _ := newTestExecutor(t)
	shopItems(t, e)
	mustRun(t, e,
		"BACK",
		"CREATE ORDERS",
		"ADD FIELDS TO ORDERS(ITEM)",
		"FOREIGN KEY ORDERS(ITEM) REFERENCES ITEMS(ID)",
	)
	orders, _ := e.S.OpenDatabase().Table("ORDERS")

	res, err := e.Execute("PRIMARY KEY ORDERS(ITEM)")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Affected)
	assert.Empty(t, orders.ForeignKeys)
	assert.False(t, orders.HasPrimaryKey())

	mustRun(t, e, "PRIMARY KEY ORDERS(ITEM)")
	assert.True(t, orders.IsPrimaryKey(1))
}

func TestExecute_ChangeTypeCycles(t *testing.T) {
	e, _ := newTestExecutor(t)
	mustRun(t, e, "CREATE SHOP", "OPEN SHOP", "CREATE ITEMS, ORDERS",
		"ADD FIELDS TO ORDERS(ITEM)", "FOREIGN KEY ORDERS(ITEM) REFERENCES ITEMS(ID)")
	orders, _ := e.S.OpenDatabase().Table("ORDERS")

	var seen []record.ColumnType
	for i := 0; i < 4; i++ {
		mustRun(t, e, "CHANGE TYPE ORDERS(ITEM)")
		seen = append(seen, orders.Columns[1].Type)
	}
	assert.Equal(t, []record.ColumnType{
		record.ColString, record.ColFloat, record.ColBoolean, record.ColInteger,
	}, seen)
	assert.Empty(t, orders.ForeignKeys)
}

// ---- rows ----

func TestExecute_SetAndDeleteRows(t *testing.T) {
	e, root := newTestExecutor(t)
	shopItems(t, e)
	mustRun(t, e, "ADD DATA(2,GADGET)", "ADD DATA(3,BOLT)")
	path := filepath.Join(root, "SHOP", "ITEMS.csv")

	res, err := e.Execute("SET NAME = 'NUT' WHERE ID >= 2")
	require.NoError(t, err)
	assert.Equal(t, "2 ROWS UPDATED", res.Status)

	res, err = e.Execute("SET NAME = X WHERE ID = 42")
	require.NoError(t, err)
	assert.Equal(t, "0 ROWS UPDATED", res.Status)

	res, err = e.Execute("DELETE ROWS WHERE NAME = NUT OR ID = 99")
	require.NoError(t, err)
	assert.Equal(t, "2 ROWS DELETED", res.Status)
	assert.Equal(t, "ID,NAME\n1,WIDGET\n", readFile(t, path))

	res, err = e.Execute("SET PRICE = 1")
	require.Error(t, err)
	assert.Equal(t, "ERROR: Column PRICE does not exist", res.Status)
}

func TestExecute_SetPrimaryKeyStaysUnique(t *testing.T) {
	e, _ := newTestExecutor(t)
	shopItems(t, e)
	mustRun(t, e, "ADD DATA(2,GADGET)", "BACK", "PRIMARY KEY ITEMS(ID)", "OPEN ITEMS")

	res, err := e.Execute("SET ID = 5")
	require.Error(t, err)
	assert.Contains(t, res.Status, "Duplicate primary key '5'")

	res, err = e.Execute("SET ID = 1 WHERE NAME = GADGET")
	require.Error(t, err)
	assert.Equal(t, "ERROR: Duplicate primary key '1' in column 'ID'", res.Status)

	res, err = e.Execute("SET ID = 7 WHERE NAME = GADGET")
	require.NoError(t, err)
	assert.Equal(t, "1 ROWS UPDATED", res.Status)
}

// ---- fields ----

func TestExecute_FieldCommands(t *testing.T) {
	e, root := newTestExecutor(t)
	shopItems(t, e)
	mustRun(t, e, "BACK")
	path := filepath.Join(root, "SHOP", "ITEMS.csv")

	res, err := e.Execute("ADD FIELDS TO ITEMS(A, A)")
	require.Error(t, err)
	assert.Equal(t, "DUPLICATE FIELDS IN QUERY", res.Status)

	res, err = e.Execute("ADD FIELDS TO ITEMS(NAME)")
	require.Error(t, err)
	assert.Equal(t, "FIELD 'NAME' ALREADY EXISTS", res.Status)

	mustRun(t, e, "ADD FIELDS TO ITEMS(PRICE, QTY)")
	assert.Equal(t, "ID,NAME,PRICE,QTY\n1,WIDGET,,\n", readFile(t, path))

	mustRun(t, e, "RENAME FIELD QTY TO STOCK IN ITEMS")
	mustRun(t, e, "MOVE FIELD ITEMS(STOCK) TO NAME")
	assert.Equal(t, "ID,STOCK,NAME,PRICE\n1,,WIDGET,\n", readFile(t, path))

	mustRun(t, e, "DELETE FIELDS PRICE, ID FROM ITEMS")
	assert.Equal(t, "STOCK,NAME\n,WIDGET\n", readFile(t, path))

	res, err = e.Execute("MOVE FIELD ITEMS(NOPE) TO NAME")
	require.Error(t, err)
	assert.Equal(t, "COLUMN NOT FOUND", res.Status)

	res, err = e.Execute("RENAME FIELD NAME TO STOCK IN ITEMS")
	require.Error(t, err)
	assert.Equal(t, "FIELD 'STOCK' ALREADY EXISTS", res.Status)

	res, err = e.Execute("ADD FIELDS TO NOPE(X)")
	require.Error(t, err)
	assert.Equal(t, "TABLE NOT FOUND", res.Status)
}

func TestExecute_MoveFieldShiftsKeys(t *testing.T) {
	e, _ := newTestExecutor(t)
	shopItems(t, e)
	mustRun(t, e,
		"BACK",
		"ADD FIELDS TO ITEMS(PRICE)",
		"PRIMARY KEY ITEMS(ID)",
		"CREATE ORDERS",
		"ADD FIELDS TO ORDERS(ITEM)",
		"FOREIGN KEY ORDERS(ITEM) REFERENCES ITEMS(ID)",
		"MOVE FIELD ITEMS(ID) TO PRICE",
	)
	db := e.S.OpenDatabase()
	items, _ := db.Table("ITEMS")
	orders, _ := db.Table("ORDERS")
	assert.Equal(t, []string{"NAME", "PRICE", "ID"}, items.ColumnNames())
	assert.True(t, items.IsPrimaryKey(2))
	require.Len(t, orders.ForeignKeys, 1)
	assert.Equal(t, 2, orders.ForeignKeys[0].RefColumn)
}

// ---- databases / tables ----

func TestExecute_RenameAndDelete(t *testing.T) {
	e, root := newTestExecutor(t)
	mustRun(t, e, "CREATE SHOP, DEPOT")

	res, err := e.Execute("RENAME SHOP TO DEPOT")
	require.Error(t, err)
	assert.Equal(t, "DATABASE ALREADY EXISTS", res.Status)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, KindConflict, se.Kind)

	res, err = e.Execute("RENAME NOPE TO X")
	require.Error(t, err)
	assert.Equal(t, "DATABASE NOT FOUND", res.Status)

	mustRun(t, e, "RENAME SHOP TO STORE")
	assert.DirExists(t, filepath.Join(root, "STORE"))
	assert.NoDirExists(t, filepath.Join(root, "SHOP"))

	mustRun(t, e, "OPEN STORE", "CREATE ITEMS, ORDERS", "ADD FIELDS TO ORDERS(ITEM)",
		"FOREIGN KEY ORDERS(ITEM) REFERENCES ITEMS(ID)", "RENAME ITEMS TO GOODS")
	orders, _ := e.S.OpenDatabase().Table("ORDERS")
	require.Len(t, orders.ForeignKeys, 1)
	assert.Equal(t, "GOODS", orders.ForeignKeys[0].RefTable)

	res, err = e.Execute("RENAME GOODS TO ORDERS")
	require.Error(t, err)
	assert.Equal(t, "TABLE ALREADY EXISTS", res.Status)

	mustRun(t, e, "DELETE GOODS")
	assert.Empty(t, orders.ForeignKeys)
	assert.NoFileExists(t, filepath.Join(root, "STORE", "GOODS.csv"))

	res, err = e.Execute("DELETE GOODS")
	require.Error(t, err)
	assert.Equal(t, "TABLE NOT FOUND", res.Status)

	mustRun(t, e, "BACK", "DELETE STORE")
	assert.NoDirExists(t, filepath.Join(root, "STORE"))
	_, found := e.S.Catalog().Database("STORE")
	assert.False(t, found)
}

// ---- navigation / dispatch ----

func TestExecute_WrongLevelIsNoOp(t *testing.T) {
	e, root := newTestExecutor(t)
	before := dumpTree(t, root)

	for _, cmd := range []string{
		"ADD DATA(1)",
		"SET A = 1",
		"SELECT *",
		"DELETE ROWS WHERE A = 1",
		"ADD FIELDS TO T(A)",
		"BACK",
	} {
		res, err := e.Execute(cmd)
		require.NoError(t, err, cmd)
		assert.True(t, res.NoOp, cmd)
		assert.Empty(t, res.Status, cmd)
	}
	assert.Equal(t, before, dumpTree(t, root))

	shopItems(t, e)
	before = dumpTree(t, root)
	schema := e.S.Catalog().Clone()
	depth := e.S.Snapshots().Depth()

	// structural commands belong to database level
	for _, cmd := range []string{
		"ADD FIELDS TO ITEMS(PRICE)",
		"DELETE FIELDS NAME FROM ITEMS",
		"RENAME FIELD NAME TO TITLE IN ITEMS",
		"MOVE FIELD ITEMS(NAME) TO ID",
		"PRIMARY KEY ITEMS(ID)",
		"FOREIGN KEY ITEMS(ID) REFERENCES ITEMS(ID)",
		"DROP FOREIGN KEY ITEMS(ID)",
		"CHANGE TYPE ITEMS(NAME) TO FLOAT",
		"CHANGE TYPE ITEMS(NAME)",
		"CREATE MORE",
		"DELETE ITEMS",
		"RENAME ITEMS TO GOODS",
		"OPEN ANY",
	} {
		res, err := e.Execute(cmd)
		require.NoError(t, err, cmd)
		assert.True(t, res.NoOp, cmd)
		assert.Empty(t, res.Status, cmd)
	}
	assert.Equal(t, catalog.LevelTable, e.S.Level())
	assert.Equal(t, before, dumpTree(t, root))
	assert.Equal(t, schema, e.S.Catalog().Clone())

	// FOCUS has nothing to move at table level and takes no snapshot
	focusDepth := e.S.Snapshots().Depth()
	for _, cmd := range []string{"FOCUS ITEMS", "FOCUS <ALL>"} {
		res, err := e.Execute(cmd)
		require.NoError(t, err, cmd)
		assert.True(t, res.NoOp, cmd)
	}
	assert.Equal(t, focusDepth, e.S.Snapshots().Depth())
	assert.Greater(t, focusDepth, depth)
}

func TestExecute_OpenAndFocusNotFound(t *testing.T) {
	e, _ := newTestExecutor(t)
	depth := e.S.Snapshots().Depth()

	res, err := e.Execute("OPEN NOPE")
	require.Error(t, err)
	assert.Equal(t, "DATABASE NOT FOUND", res.Status)

	res, err = e.Execute("FOCUS NOPE")
	require.Error(t, err)
	assert.Equal(t, "DATABASE NOT FOUND", res.Status)

	res, err = e.Execute("FOCUS <ALL>")
	require.NoError(t, err)
	assert.True(t, res.NoOp)
	assert.Equal(t, depth, e.S.Snapshots().Depth())

	mustRun(t, e, "CREATE SHOP", "OPEN SHOP")
	res, err = e.Execute("OPEN NOPE")
	require.Error(t, err)
	assert.Equal(t, "TABLE NOT FOUND", res.Status)
}

func TestExecute_FocusMovesItems(t *testing.T) {
	e, _ := newTestExecutor(t)
	mustRun(t, e, "CREATE A, B")
	e.S.SetViewport(engine.Viewport{CenterX: 10, CenterY: 20})

	res, err := e.Execute("FOCUS b")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Affected)
	b, _ := e.S.Catalog().Database("B")
	assert.Equal(t, 10.0, b.X)
	assert.Equal(t, 20.0, b.Y)

	res, err = e.Execute("FOCUS <ALL>")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Affected)
	assert.NotEqual(t, uuid.Nil, res.SnapshotID)
}

func TestExecute_InvalidInput(t *testing.T) {
	e, _ := newTestExecutor(t)

	res, err := e.Execute("DANCE")
	require.Error(t, err)
	assert.Equal(t, "INVALID QUERY", res.Status)
	assert.Empty(t, res.Command)

	depth := e.S.Snapshots().Depth()
	res, err = e.Execute("RENAME A B")
	require.Error(t, err)
	assert.Contains(t, res.Status, "INVALID SYNTAX")
	assert.Equal(t, depth+1, e.S.Snapshots().Depth())

	assert.Equal(t, "INVALID QUERY", e.Run(""))
}

func TestExecute_InternalErrorIsReported(t *testing.T) {
	e, _ := newTestExecutor(t)
	shopItems(t, e)
	bad := 5
	e.S.OpenTable().PrimaryKey = &bad

	res, err := e.Execute("ADD DATA(2,X)")
	require.Error(t, err)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, KindInternal, se.Kind)
	assert.Equal(t, "ADD DATA", se.Command)
	assert.Contains(t, res.Status, "ERROR IN ADD DATA: ")
}

func TestExecute_RecordsHistory(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("disk full")}
	e, _ := newTestExecutor(t, WithRecorder(rec))

	mustRun(t, e, "CREATE SHOP", "OPEN SHOP")
	_, _ = e.Execute("NOPE")

	require.Len(t, rec.entries, 3)
	assert.Equal(t, "CREATE SHOP", rec.entries[0].Command)
	assert.Equal(t, "OK", rec.entries[0].Status)
	assert.NotEmpty(t, rec.entries[0].SnapshotID)
	assert.Empty(t, rec.entries[1].SnapshotID)
	assert.Equal(t, "SHOP", rec.entries[1].Database)
	assert.Equal(t, "DATABASE", rec.entries[1].Level)
	assert.True(t, rec.entries[2].IsError)
	assert.Equal(t, "INVALID QUERY", rec.entries[2].Status)
}
