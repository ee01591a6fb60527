package export

import (
	"bytes"
	"testing"

	"github.com/JonMunkholm/ProductTable/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func product(fields ...catalog.Field) catalog.Product {
	return catalog.MustProduct(fields...)
}

func fixture() []catalog.Product {
	return []catalog.Product{
		product(catalog.Field{Key: "id", Value: 1}, catalog.Field{Key: "name", Value: "Apple"}, catalog.Field{Key: "price", Value: 10}),
		product(catalog.Field{Key: "id", Value: 2}, catalog.Field{Key: "name", Value: "Banana"}, catalog.Field{Key: "price", Value: 20}),
		product(catalog.Field{Key: "id", Value: 3}, catalog.Field{Key: "name", Value: "Cherry"}, catalog.Field{Key: "price", Value: 30},
			catalog.Field{Key: "tags", Value: []any{"red", "small"}}),
	}
}

func readSheet(t *testing.T, buf *bytes.Buffer) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	return rows
}

func TestProject_RawOrderExactSubset(t *testing.T) {
	raw := fixture()
	selected := map[int64]struct{}{3: {}, 1: {}}

	got := Project(raw, selected)

	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(3), got[1].ID)
}

func TestProject_EmptySelection(t *testing.T) {
	assert.Empty(t, Project(fixture(), nil))
}

func TestColumns_UnionInFirstSeenOrder(t *testing.T) {
	assert.Equal(t, []string{"id", "name", "price", "tags"}, Columns(fixture()))
}

func TestWriteXLSX_SingleBananaRow(t *testing.T) {
	raw := fixture()
	selected := Project(raw, map[int64]struct{}{2: {}})

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, selected))

	rows := readSheet(t, &buf)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"id", "name", "price"}, rows[0])
	assert.Equal(t, []string{"2", "Banana", "20"}, rows[1])
}

func TestWriteXLSX_MissingFieldsLeaveBlankCells(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, fixture()))

	rows := readSheet(t, &buf)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"id", "name", "price", "tags"}, rows[0])
	assert.Equal(t, []string{"1", "Apple", "10"}, rows[1])
	assert.Equal(t, []string{"3", "Cherry", "30", `["red","small"]`}, rows[3])
}

func TestWriteXLSX_NumbersAreNumericCells(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, fixture()[:1]))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	typ, err := f.GetCellType(SheetName, "C2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ)
	assert.NotEqual(t, excelize.CellTypeInlineString, typ)
}

func TestWriteXLSX_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, nil))

	rows := readSheet(t, &buf)
	assert.Empty(t, rows)
}
