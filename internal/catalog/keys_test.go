package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/flatsql/internal/record"
)

func TestShiftMoved(t *testing.T) {
	// move 1 -> 3 over [0 1 2 3 4]
	got := []int{}
	for i := 0; i < 5; i++ {
		got = append(got, shiftMoved(i, 1, 3))
	}
	assert.Equal(t, []int{0, 3, 1, 2, 4}, got)

	// move 3 -> 1
	got = got[:0]
	for i := 0; i < 5; i++ {
		got = append(got, shiftMoved(i, 3, 1))
	}
	assert.Equal(t, []int{0, 2, 3, 1, 4}, got)
}

func TestMoveColumn_ShiftsKeysBothWays(t *testing.T) {
	db, items, orders := newShop(t)

	// ITEMS: ID NAME PRICE -> NAME PRICE ID
	require.NoError(t, db.MoveColumn(items, 0, 2))
	assert.Equal(t, []string{"NAME", "PRICE", "ID"}, items.ColumnNames())
	assert.Equal(t, 2, *items.PrimaryKey)
	assert.Equal(t, 2, orders.ForeignKeys[0].RefColumn)

	// ORDERS: OID ITEM QTY -> ITEM OID QTY
	require.NoError(t, db.MoveColumn(orders, 1, 0))
	assert.Equal(t, []string{"ITEM", "OID", "QTY"}, orders.ColumnNames())
	assert.Equal(t, 1, *orders.PrimaryKey)
	assert.Equal(t, 0, orders.ForeignKeys[0].Column)
}

func TestMoveColumn_OutOfRange(t *testing.T) {
	db, items, _ := newShop(t)
	require.ErrorIs(t, db.MoveColumn(items, 0, 3), ErrBadIndex)
	require.NoError(t, db.MoveColumn(items, 1, 1))
	assert.Equal(t, []string{"ID", "NAME", "PRICE"}, items.ColumnNames())
}

func TestDeleteColumn_DropsReferencingKeys(t *testing.T) {
	db, items, orders := newShop(t)

	require.NoError(t, db.DeleteColumn(items, 0))
	assert.Equal(t, []string{"NAME", "PRICE"}, items.ColumnNames())
	assert.False(t, items.HasPrimaryKey())
	assert.Empty(t, orders.ForeignKeys)
}

func TestDeleteColumn_ShiftsLaterKeys(t *testing.T) {
	db, items, orders := newShop(t)
	require.NoError(t, items.SetPrimaryKey(2))
	// ORDERS.QTY -> ITEMS.PRICE
	require.NoError(t, db.AddForeignKey(orders, 2, items, 2))

	require.NoError(t, db.DeleteColumn(items, 1))
	assert.Equal(t, 1, *items.PrimaryKey)
	require.Len(t, orders.ForeignKeys, 2)
	assert.Equal(t, 0, orders.ForeignKeys[0].RefColumn)
	assert.Equal(t, 1, orders.ForeignKeys[1].RefColumn)

	require.NoError(t, db.DeleteColumn(orders, 0))
	assert.False(t, orders.HasPrimaryKey())
	assert.Equal(t, 0, orders.ForeignKeys[0].Column)
	assert.Equal(t, 1, orders.ForeignKeys[1].Column)
}

func TestSetColumnType_DropsForeignKeys(t *testing.T) {
	db, items, orders := newShop(t)

	require.NoError(t, db.SetColumnType(items, 0, record.ColString))
	assert.Equal(t, record.ColString, items.Columns[0].Type)
	assert.Empty(t, orders.ForeignKeys)

	db, _, orders = newShop(t)
	require.NoError(t, db.SetColumnType(orders, 1, record.ColFloat))
	assert.Empty(t, orders.ForeignKeys)
}

func TestAddForeignKey_TypeMismatch(t *testing.T) {
	db, items, orders := newShop(t)
	items.Columns[1].Type = record.ColString

	err := db.AddForeignKey(orders, 2, items, 1)
	require.ErrorIs(t, err, ErrTypeMismatch)

	err = db.AddForeignKey(orders, 1, items, 0)
	require.ErrorIs(t, err, ErrForeignKeyExists)
}

func TestRenameTable_RewritesReferences(t *testing.T) {
	db, items, orders := newShop(t)

	db.RenameTable(items, "products")
	assert.Equal(t, "PRODUCTS", items.Name)
	assert.Equal(t, "PRODUCTS", orders.ForeignKeys[0].RefTable)
}

func TestDropTable_RemovesReferences(t *testing.T) {
	db, _, orders := newShop(t)

	require.NoError(t, db.DropTable("items"))
	_, ok := db.Table("ITEMS")
	assert.False(t, ok)
	assert.Empty(t, orders.ForeignKeys)

	require.ErrorIs(t, db.DropTable("items"), ErrTableNotFound)
}

func TestRemoveForeignKeys(t *testing.T) {
	_, _, orders := newShop(t)
	assert.True(t, orders.HasForeignKey(1))
	assert.Equal(t, 1, orders.RemoveForeignKeys(1))
	assert.False(t, orders.HasForeignKey(1))
	assert.Equal(t, 0, orders.RemoveForeignKeys(1))
}
