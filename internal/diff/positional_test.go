package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recdiff/internal/domain"
)

func TestFindKeyColumn(t *testing.T) {
	tests := []struct {
		name string
		rows [][]any
		want int
	}{
		{"empty", nil, -1},
		{"header only", [][]any{{"id"}}, -1},
		{"first hinted column", [][]any{{"name", "ID", "code"}, {"a", 1, "x"}, {"b", 2, "y"}}, 1},
		{"skips non unique", [][]any{{"id", "part_no"}, {1, "p1"}, {1, "p2"}}, 1},
		{"no hint", [][]any{{"name", "qty"}, {"a", 1}}, -1},
		{"unique check uses canonical values", [][]any{{"key"}, {1}, {"1"}}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindKeyColumn(tt.rows))
		})
	}
}

func TestDiffSheets_Keyed(t *testing.T) {
	source := [][]any{
		{"code", "name", "qty"},
		{"A", "apple", 1},
		{"B", "banana", 2},
		{"C", "cherry", 3},
	}
	target := [][]any{
		{"code", "name", "qty"},
		{"C", "cherry", 3},
		{"A", "apple", "5"},
		{"D", "date", 4},
	}

	d := DiffSheets("fruit", source, target)
	assert.Equal(t, "fruit", d.Sheet)
	assert.Equal(t, 0, d.KeyColumn)
	assert.False(t, d.Positional())
	assert.Equal(t, []string{"code", "name", "qty"}, d.Columns)

	require.Len(t, d.Rows, 4)
	assert.Equal(t, domain.RowSame, d.Rows[0].Type)
	assert.Equal(t, 1, d.Rows[0].RowIndex)

	assert.Equal(t, domain.RowModify, d.Rows[1].Type)
	assert.Equal(t, map[int]domain.CellChange{2: {Old: 1, New: "5"}}, d.Rows[1].Cells)

	assert.Equal(t, domain.RowAdd, d.Rows[2].Type)
	assert.Nil(t, d.Rows[2].Base)

	assert.Equal(t, domain.RowRemove, d.Rows[3].Type)
	assert.Nil(t, d.Rows[3].Target)
	assert.Equal(t, []any{"B", "banana", 2}, d.Rows[3].Base)
	assert.Equal(t, 2, d.Rows[3].RowIndex)

	assert.Equal(t, map[domain.RowChange]int{
		domain.RowSame: 1, domain.RowModify: 1, domain.RowAdd: 1, domain.RowRemove: 1,
	}, d.Counts())
}

func TestDiffSheets_Positional(t *testing.T) {
	source := [][]any{
		{"name", "qty"},
		{"a", 1},
		{"b", 2},
		{"c", 3},
	}
	target := [][]any{
		{"name", "qty", "note"},
		{"a", "1"},
		{"b", 20},
	}

	d := DiffSheets("s", source, target)
	assert.True(t, d.Positional())
	assert.Equal(t, -1, d.KeyColumn)
	assert.Equal(t, []string{"name", "qty", "note"}, d.Columns)

	require.Len(t, d.Rows, 3)
	assert.Equal(t, domain.RowSame, d.Rows[0].Type, "1 and \"1\" are equal; missing cell equals empty")
	assert.Equal(t, domain.RowModify, d.Rows[1].Type)
	assert.Equal(t, map[int]domain.CellChange{1: {Old: 2, New: 20}}, d.Rows[1].Cells)
	assert.Equal(t, domain.RowRemove, d.Rows[2].Type)
	assert.Equal(t, 3, d.Rows[2].RowIndex)
}

func TestDiffSheets_PositionalShift(t *testing.T) {
	source := [][]any{{"name"}, {"a"}, {"b"}}
	target := [][]any{{"name"}, {"x"}, {"a"}, {"b"}}

	d := DiffSheets("s", source, target)
	require.Len(t, d.Rows, 3)
	assert.Equal(t, domain.RowModify, d.Rows[0].Type)
	assert.Equal(t, domain.RowModify, d.Rows[1].Type)
	assert.Equal(t, domain.RowAdd, d.Rows[2].Type)
}

func TestDiffSheets_HeaderFallback(t *testing.T) {
	source := [][]any{{"", "b"}}
	target := [][]any{{"a", "", nil}}

	d := DiffSheets("s", source, target)
	assert.Equal(t, []string{"a", "b", "Col 3"}, d.Columns)
	assert.Empty(t, d.Rows)
}

func TestDiffSheets_EmptySheets(t *testing.T) {
	d := DiffSheets("s", nil, nil)
	assert.Empty(t, d.Columns)
	assert.Empty(t, d.Rows)
	assert.True(t, d.Positional())
}
