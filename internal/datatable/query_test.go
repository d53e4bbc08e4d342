package datatable

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindQueryAppliesState(t *testing.T) {
	table := MustNew(testRows(), testColumns(), Options{})
	q, err := url.ParseQuery("q=ххк&hide=name,bogus&show=note&sort=amount&dir=desc&size=10")
	require.NoError(t, err)

	table.BindQuery(q)

	assert.Equal(t, []string{"no", "code", "amount", "note", "actions"}, visibleIDs(table))
	id, dir := table.Sort()
	assert.Equal(t, "amount", id)
	assert.Equal(t, SortDesc, dir)
	assert.Equal(t, 10, table.Page().Size)
	assert.Equal(t, "ххк", table.QuickFilter())
	assert.Equal(t, []string{"003", "002", "001"}, codes(table.Rows()))
}

func TestBindQuerySortWithoutDirection(t *testing.T) {
	table := MustNew(testRows(), testColumns(), Options{})
	table.BindQuery(url.Values{ParamSort: {"code"}})
	_, dir := table.Sort()
	assert.Equal(t, SortAsc, dir)
}

func TestStateRoundTrip(t *testing.T) {
	table := MustNew(testRows(), testColumns(), Options{Pagination: true, PageSize: 10})
	require.NoError(t, table.ToggleColumn("name"))
	require.NoError(t, table.ToggleColumn("note"))
	require.NoError(t, table.SortBy("code", SortDesc))
	table.SetQuickFilter("ххк")

	state := table.State()
	assert.Equal(t, "name", state.Get(ParamHide))
	assert.Equal(t, "note", state.Get(ParamShow))
	assert.Equal(t, "10", state.Get(ParamSize))
	assert.False(t, state.Has(ParamPage))

	restored := MustNew(testRows(), testColumns(), Options{})
	restored.BindQuery(state)
	assert.Equal(t, visibleIDs(table), visibleIDs(restored))
	assert.Equal(t, codes(table.Rows()), codes(restored.Rows()))
}

func TestViewLinks(t *testing.T) {
	table := MustNew(testRows(), testColumns(), Options{})
	require.NoError(t, table.SortBy("code", SortAsc))
	base := &url.URL{Path: "/dashboard/customers"}

	view := table.View(base, "/dashboard/customers/export")

	require.Len(t, view.Headers, 5)
	code := view.Headers[1]
	assert.Equal(t, SortAsc, code.SortDir)
	assert.Equal(t, "/dashboard/customers?dir=desc&sort=code", code.SortURL)
	assert.False(t, view.Headers[0].Sortable)
	assert.Equal(t, "max-width:50px", string(view.Headers[0].Style))

	require.Len(t, view.Rows, 3)
	assert.Equal(t, "1", string(view.Rows[0].Cells[0].HTML))
	assert.Equal(t, "001", string(view.Rows[0].Cells[1].HTML))
	assert.Contains(t, string(view.Rows[0].Cells[4].HTML), `/x/001`)

	var toggles = map[string]string{}
	for _, item := range view.Menu {
		toggles[item.ID] = item.ToggleURL
	}
	assert.NotContains(t, toggles, "no")
	assert.Equal(t, "/dashboard/customers?dir=asc&hide=name&sort=code", toggles["name"])
	assert.Equal(t, "/dashboard/customers?dir=asc&show=note&sort=code", toggles["note"])
	assert.Equal(t, "/dashboard/customers/export?dir=asc&sort=code", view.ExportURL)
}

func TestViewEscapesValues(t *testing.T) {
	rows := []testRow{{Code: "<b>1</b>", Name: "x"}}
	table := MustNew(rows, testColumns(), Options{})
	view := table.View(&url.URL{Path: "/"}, "")
	assert.Equal(t, "&lt;b&gt;1&lt;/b&gt;", string(view.Rows[0].Cells[1].HTML))
}

func TestViewPagingLinks(t *testing.T) {
	var rows []testRow
	for i := 0; i < 25; i++ {
		rows = append(rows, testRow{Code: "c", Name: "n"})
	}
	table := MustNew(rows, testColumns(), Options{Pagination: true, PageSize: 10})
	table.SetPage(2)
	view := table.View(&url.URL{Path: "/p"}, "")

	assert.Equal(t, "/p?size=10", view.PrevURL)
	assert.Equal(t, "/p?page=3&size=10", view.NextURL)
	assert.Equal(t, "11", string(view.Rows[0].Cells[0].HTML))
	require.Len(t, view.Sizes, len(PageSizes))
	assert.True(t, view.Sizes[0].Active)
	assert.Equal(t, "/p?size=50", view.Sizes[2].URL)
}

func TestViewLinksKeepPageFilters(t *testing.T) {
	table := MustNew(testRows(), testColumns(), Options{})
	base := &url.URL{Path: "/dashboard/finance-and-report", RawQuery: "year=2024&sort=code&dir=desc"}
	table.BindQuery(base.Query())

	view := table.View(base, "/dashboard/finance-and-report/export.csv")

	assert.Equal(t, "/dashboard/finance-and-report?year=2024", view.Headers[1].SortURL)
	assert.Equal(t, "/dashboard/finance-and-report/export.csv?dir=desc&sort=code&year=2024", view.ExportURL)
	assert.Equal(t, "2024", view.Hidden["year"])
	assert.Equal(t, "desc", view.Hidden[ParamDir])
}
