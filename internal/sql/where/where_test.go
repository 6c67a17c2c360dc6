package where

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var header = []string{"ID", "NAME", "PRICE"}

func TestParse_Structure(t *testing.T) {
	c := Parse("ID > 0 AND NAME LIKE \"wid\" OR price <= 2.5")
	require.Len(t, c.Or, 2)
	require.Len(t, c.Or[0], 2)
	require.Len(t, c.Or[1], 1)

	assert.Equal(t, Cond{Column: "ID", Op: OpGT, Value: "0"}, c.Or[0][0])
	assert.Equal(t, Cond{Column: "NAME", Op: OpLike, Value: "wid"}, c.Or[0][1])
	assert.Equal(t, Cond{Column: "PRICE", Op: OpLE, Value: "2.5"}, c.Or[1][0])
}

func TestParse_OperatorPriority(t *testing.T) {
	cases := []struct {
		in   string
		want Cond
	}{
		{"A >= 1", Cond{Column: "A", Op: OpGE, Value: "1"}},
		{"A<=1", Cond{Column: "A", Op: OpLE, Value: "1"}},
		{"A != 1", Cond{Column: "A", Op: OpNE, Value: "1"}},
		{"A = x=y", Cond{Column: "A", Op: OpEQ, Value: "x=y"}},
		{"a < b", Cond{Column: "A", Op: OpLT, Value: "b"}},
		{"n like 'Ab'", Cond{Column: "N", Op: OpLike, Value: "Ab"}},
	}
	for _, tc := range cases {
		c := Parse(tc.in)
		require.Len(t, c.Or, 1, tc.in)
		assert.Equal(t, tc.want, c.Or[0][0], tc.in)
	}
}

func TestParse_KeywordsCaseInsensitive(t *testing.T) {
	c := Parse("ID = 1 or ID = 2 and NAME = B")
	require.Len(t, c.Or, 2)
	assert.Len(t, c.Or[1], 2)
}

func TestMatch_EmptyClauseMatchesAll(t *testing.T) {
	assert.True(t, Parse("").Match(header, []string{"1", "A", "2"}))
	assert.True(t, Clause{}.Empty())
}

func TestMatch_NumericThenString(t *testing.T) {
	row := []string{"10", "WIDGET", "2.50"}

	assert.True(t, Parse("ID > 9").Match(header, row))
	// numeric: 10 > 9 even though "10" < "9" as strings
	assert.False(t, Parse("ID < 9").Match(header, row))
	assert.True(t, Parse("PRICE = 2.5").Match(header, row))
	assert.True(t, Parse("PRICE >= 2.5").Match(header, row))
	assert.True(t, Parse("PRICE != 3").Match(header, row))

	// string fallback
	assert.True(t, Parse("NAME = WIDGET").Match(header, row))
	assert.False(t, Parse("NAME = widget").Match(header, row))
	assert.True(t, Parse("NAME > APPLE").Match(header, row))
	assert.True(t, Parse("NAME <= WIDGET").Match(header, row))
	// "10" < "1A" byte-wise
	assert.False(t, Parse("ID > 1A").Match(header, row))
}

func TestMatch_Like(t *testing.T) {
	row := []string{"1", "WIDGET", ""}
	assert.True(t, Parse(`NAME LIKE "wid"`).Match(header, row))
	assert.True(t, Parse("NAME LIKE GET").Match(header, row))
	assert.False(t, Parse("NAME LIKE gadget").Match(header, row))
	assert.False(t, Parse("NAME LIKE w%").Match(header, row))
}

func TestMatch_UnknownColumnFailsTermOnly(t *testing.T) {
	row := []string{"1", "WIDGET", "3"}
	assert.False(t, Parse("NOPE = 1").Match(header, row))
	assert.False(t, Parse("NOPE = 1 AND ID = 1").Match(header, row))
	assert.True(t, Parse("NOPE = 1 OR ID = 1").Match(header, row))
}

func TestMatch_ShortRowReadsEmpty(t *testing.T) {
	assert.True(t, Parse("PRICE = ").Match(header, []string{"1", "A"}))
	assert.False(t, Parse("PRICE > 0").Match(header, []string{"1", "A"}))
}

func TestMatch_NoOperatorNeverMatches(t *testing.T) {
	assert.False(t, Parse("NAME").Match(header, []string{"1", "", ""}))
}
