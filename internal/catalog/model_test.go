package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/flatsql/internal/record"
)

func intp(i int) *int { return &i }

// newShop builds SHOP with ITEMS(ID, NAME, PRICE) and ORDERS(OID, ITEM, QTY),
// where ORDERS.ITEM -> ITEMS.ID.
func newShop(t *testing.T) (*Database, *Table, *Table) {
	t.Helper()

	items := NewTable("items", []string{"id", "name", "price"})
	items.PrimaryKey = intp(0)

	orders := NewTable("orders", []string{"oid", "item", "qty"})
	orders.PrimaryKey = intp(0)

	db := &Database{Name: "SHOP", Tables: []*Table{items, orders}}
	require.NoError(t, db.AddForeignKey(orders, 1, items, 0))
	return db, items, orders
}

func TestNewTable_NormalizesAndDefaultsToInteger(t *testing.T) {
	tbl := NewTable(" users ", []string{"id", " Name"})
	assert.Equal(t, "USERS", tbl.Name)
	assert.Equal(t, []string{"ID", "NAME"}, tbl.ColumnNames())
	for _, c := range tbl.Columns {
		assert.Equal(t, record.ColInteger, c.Type)
	}
	assert.False(t, tbl.HasPrimaryKey())
}

func TestCatalog_CloneIsDeep(t *testing.T) {
	db, items, _ := newShop(t)
	c := &Catalog{Databases: []*Database{db}}

	cp := c.Clone()
	require.Len(t, cp.Databases, 1)

	cpItems, ok := cp.Databases[0].Table("ITEMS")
	require.True(t, ok)
	require.NotSame(t, items, cpItems)

	cpItems.Columns[0].Name = "CHANGED"
	*cpItems.PrimaryKey = 2
	cpOrders, _ := cp.Databases[0].Table("ORDERS")
	cpOrders.ForeignKeys[0].RefColumn = 9

	assert.Equal(t, "ID", items.Columns[0].Name)
	assert.Equal(t, 0, *items.PrimaryKey)
	orders, _ := db.Table("ORDERS")
	assert.Equal(t, 0, orders.ForeignKeys[0].RefColumn)
}

func TestUniqueName(t *testing.T) {
	taken := map[string]bool{"WIDGET": true, "WIDGET_1": true}
	got := UniqueName("WIDGET", func(s string) bool { return taken[s] })
	assert.Equal(t, "WIDGET_2", got)

	got = UniqueName("FRESH", func(s string) bool { return taken[s] })
	assert.Equal(t, "FRESH", got)
}

func TestDatabase_UniqueTableName(t *testing.T) {
	db, _, _ := newShop(t)
	assert.Equal(t, "ITEMS_1", db.UniqueTableName("items", nil))
	db.AddTable(NewTable("ITEMS_1", nil))
	assert.Equal(t, "ITEMS_2", db.UniqueTableName("items", nil))

	onDisk := func(n string) bool { return n == "ITEMS_2" }
	assert.Equal(t, "ITEMS_3", db.UniqueTableName("items", onDisk))
	assert.Equal(t, "FRESH", db.UniqueTableName("fresh", onDisk))
}

func TestTable_AddColumns(t *testing.T) {
	tbl := NewTable("T", []string{"A"})

	require.ErrorIs(t, tbl.AddColumns("B", "b"), ErrColumnExists)
	require.ErrorIs(t, tbl.AddColumns("a"), ErrColumnExists)
	assert.Equal(t, []string{"A"}, tbl.ColumnNames())

	require.NoError(t, tbl.AddColumns("b", "c"))
	assert.Equal(t, []string{"A", "B", "C"}, tbl.ColumnNames())
}

func TestTable_RenameColumn(t *testing.T) {
	tbl := NewTable("T", []string{"A", "B"})

	require.ErrorIs(t, tbl.RenameColumn("Z", "Y"), ErrColumnNotFound)
	require.ErrorIs(t, tbl.RenameColumn("A", "B"), ErrColumnExists)
	require.NoError(t, tbl.RenameColumn("a", "alpha"))
	assert.Equal(t, []string{"ALPHA", "B"}, tbl.ColumnNames())
}

func TestCatalog_RemoveDatabase(t *testing.T) {
	c := New()
	c.AddDatabase(&Database{Name: "A"})
	c.AddDatabase(&Database{Name: "B"})

	require.NoError(t, c.RemoveDatabase("a"))
	_, ok := c.Database("A")
	assert.False(t, ok)
	require.ErrorIs(t, c.RemoveDatabase("A"), ErrDatabaseNotFound)
}
