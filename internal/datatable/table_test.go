package datatable

import (
	"bytes"
	"html/template"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRow struct {
	Code   string
	Name   string
	Amount float64
	Active bool
}

func testColumns() []Column[testRow] {
	return []Column[testRow]{
		{ID: "no", Header: "№", RowNumber: true, Pinned: PinLeft, MaxWidth: 50},
		{ID: "code", Header: "Код", Pinned: PinLeft, Value: func(r testRow) string { return r.Code }},
		{ID: "name", Header: "Нэр", Value: func(r testRow) string { return r.Name }},
		{ID: "amount", Header: "Дүн", Align: "right", Value: func(r testRow) string { return strconv.FormatFloat(r.Amount, 'f', 2, 64) }},
		{ID: "note", Header: "Тайлбар", Hide: true, Value: func(r testRow) string { return "тэмдэглэл " + r.Code }},
		{ID: "actions", Pinned: PinRight, DisableSort: true, DisableFilter: true, DisableExport: true,
			Render: func(r testRow, _ int) template.HTML { return template.HTML(`<a href="/x/` + r.Code + `">👁</a>`) }},
	}
}

func testRows() []testRow {
	return []testRow{
		{Code: "003", Name: "Өргөө ХХК", Amount: 1500},
		{Code: "001", Name: "Алтан ХХК", Amount: 20},
		{Code: "002", Name: "Бор ХХК", Amount: 300},
	}
}

func visibleIDs(t *Table[testRow]) []string {
	var ids []string
	for _, c := range t.VisibleColumns() {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestNewRejectsColumnsWithoutID(t *testing.T) {
	cols := testColumns()
	cols = append(cols, Column[testRow]{Header: "Үйлдэл"})
	_, err := New(testRows(), cols, Options{})
	assert.ErrorIs(t, err, ErrColumnID)

	cols = append(testColumns(), Column[testRow]{ID: " note "})
	_, err = New(testRows(), cols, Options{})
	assert.ErrorIs(t, err, ErrColumnID)

	cols = append(testColumns(), Column[testRow]{ID: "code"})
	_, err = New(testRows(), cols, Options{})
	assert.ErrorIs(t, err, ErrDuplicateColumn)
}

func TestToggleColumnTwiceRestoresColumns(t *testing.T) {
	table := MustNew(testRows(), testColumns(), Options{})
	require.NoError(t, table.SortBy("name", SortDesc))
	before := visibleIDs(table)

	require.NoError(t, table.ToggleColumn("name"))
	assert.NotContains(t, visibleIDs(table), "name")
	require.NoError(t, table.ToggleColumn("name"))

	assert.Equal(t, before, visibleIDs(table))
	id, dir := table.Sort()
	assert.Equal(t, "name", id)
	assert.Equal(t, SortDesc, dir)

	assert.ErrorIs(t, table.ToggleColumn("missing"), ErrUnknownColumn)
}

func TestVisibleColumnsDisplayOrder(t *testing.T) {
	table := MustNew(testRows(), testColumns(), Options{})
	assert.Equal(t, []string{"no", "code", "name", "amount", "actions"}, visibleIDs(table))
}

func TestApplyColumnStateMergesByID(t *testing.T) {
	table := MustNew(testRows(), testColumns(), Options{})
	require.NoError(t, table.SortBy("amount", SortAsc))

	err := table.ApplyColumnState([]ColumnState{{ID: "note", Hide: false}, {ID: "code", Hide: true}, {ID: "bogus"}})
	assert.ErrorIs(t, err, ErrUnknownColumn)
	assert.Equal(t, []string{"no", "code", "name", "amount", "actions"}, visibleIDs(table))

	require.NoError(t, table.ApplyColumnState([]ColumnState{{ID: "note", Hide: false}, {ID: "code", Hide: true}, {ID: "actions", Pinned: PinRight}}))
	assert.Equal(t, []string{"no", "name", "amount", "note", "actions"}, visibleIDs(table))
	id, _ := table.Sort()
	assert.Equal(t, "amount", id)

	state := table.ColumnState()
	require.Len(t, state, 6)
	assert.True(t, state[1].Hide)
}

func TestQuickFilterIsCaseInsensitiveAndLazy(t *testing.T) {
	table := MustNew(testRows(), testColumns(), Options{})

	table.SetQuickFilter("  алтан ")
	assert.False(t, table.viewCurrent)
	rows := table.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "001", rows[0].Code)
	assert.True(t, table.viewCurrent)

	table.SetQuickFilter("АЛТАН")
	assert.Len(t, table.Rows(), 1)

	table.SetQuickFilter("ххк 300")
	rows = table.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "002", rows[0].Code)

	// Hidden columns do not participate.
	table.SetQuickFilter("тэмдэглэл")
	assert.Empty(t, table.Rows())
	require.NoError(t, table.ToggleColumn("note"))
	assert.Len(t, table.Rows(), 3)
}

func TestSortNumericAndText(t *testing.T) {
	table := MustNew(testRows(), testColumns(), Options{})

	require.NoError(t, table.SortBy("amount", SortAsc))
	assert.Equal(t, []string{"001", "002", "003"}, codes(table.Rows()))

	require.NoError(t, table.SortBy("name", SortAsc))
	assert.Equal(t, []string{"001", "002", "003"}, codes(table.Rows()))

	require.NoError(t, table.SortBy("name", SortDesc))
	assert.Equal(t, []string{"003", "002", "001"}, codes(table.Rows()))

	assert.ErrorIs(t, table.SortBy("actions", SortAsc), ErrNotSortable)
	assert.ErrorIs(t, table.SortBy("no", SortAsc), ErrNotSortable)

	require.NoError(t, table.SortBy("", SortNone))
	assert.Equal(t, []string{"003", "001", "002"}, codes(table.Rows()))
}

func codes(rows []testRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Code
	}
	return out
}

func TestPagination(t *testing.T) {
	var rows []testRow
	for i := 0; i < 45; i++ {
		rows = append(rows, testRow{Code: strconv.Itoa(i), Name: "n", Amount: float64(i)})
	}
	table := MustNew(rows, testColumns(), Options{})
	assert.False(t, table.Page().Enabled)
	assert.Len(t, table.PageRows(), 45)

	assert.ErrorIs(t, table.EnablePagination(15), ErrPageSize)
	require.NoError(t, table.EnablePagination(20))
	table.SetPage(3)
	info := table.Page()
	assert.Equal(t, 3, info.Page)
	assert.Equal(t, 3, info.Pages)
	assert.Equal(t, 41, info.From)
	assert.Equal(t, 45, info.To)
	assert.Len(t, table.PageRows(), 5)

	table.SetPage(99)
	assert.Equal(t, 3, table.Page().Page)

	paged, err := New(rows, testColumns(), Options{Pagination: true})
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, paged.Page().Size)
}

func TestEmptyRowsRenderEmptyState(t *testing.T) {
	table := MustNew[testRow](nil, testColumns(), Options{})
	view := table.View(&url.URL{Path: "/dashboard/customers"}, "")
	assert.True(t, view.Empty)
	assert.NotEmpty(t, view.EmptyText)
	assert.Len(t, view.Headers, 5)
}

func TestWriteCSV(t *testing.T) {
	table := MustNew(testRows(), testColumns(), Options{FileName: "customers.csv"})
	table.SetPinnedBottom([]testRow{{Name: "Нийт", Amount: 1820}})
	require.NoError(t, table.SortBy("code", SortAsc))
	table.SetQuickFilter("ххк")

	var buf bytes.Buffer
	require.NoError(t, table.WriteCSV(&buf))
	content := strings.TrimPrefix(buf.String(), utf8BOM)
	lines := strings.Split(strings.TrimSuffix(content, "\r\n"), "\r\n")

	require.Len(t, lines, 5)
	assert.Equal(t, "Код,Нэр,Дүн", lines[0])
	assert.Equal(t, "001,Алтан ХХК,20.00", lines[1])
	assert.Equal(t, ",Нийт,1820.00", lines[4])

	require.NoError(t, table.ToggleColumn("name"))
	buf.Reset()
	require.NoError(t, table.WriteCSV(&buf))
	assert.True(t, strings.HasPrefix(strings.TrimPrefix(buf.String(), utf8BOM), "Код,Дүн\r\n"))
}

func TestCSVStreamerFlushInterval(t *testing.T) {
	var buf bytes.Buffer
	streamer := newCSVStreamer(&buf)
	for i := 0; i < csvFlushEvery; i++ {
		require.NoError(t, streamer.writeRow([]string{"row"}))
	}
	assert.Equal(t, 0, streamer.pendingLines)
	require.NoError(t, streamer.writeRow([]string{"next"}))
	assert.Equal(t, 1, streamer.pendingLines)
	require.NoError(t, streamer.Close())
}

func TestRecordsMatchExport(t *testing.T) {
	table := MustNew(testRows(), testColumns(), Options{})
	table.SetPinnedBottom([]testRow{{Name: "Нийт", Amount: 1820}})
	require.NoError(t, table.SortBy("code", SortAsc))

	records := table.Records()
	require.Len(t, records, 5)
	assert.Equal(t, []string{"Код", "Нэр", "Дүн"}, records[0])
	assert.Equal(t, []string{"001", "Алтан ХХК", "20.00"}, records[1])
	assert.Equal(t, []string{"", "Нийт", "1820.00"}, records[4])
}
