package datatable

import (
	"net/url"
	"strconv"
	"strings"
)

// Query parameter names understood by BindQuery.
const (
	ParamQuick = "q"
	ParamHide  = "hide"
	ParamShow  = "show"
	ParamSort  = "sort"
	ParamDir   = "dir"
	ParamPage  = "page"
	ParamSize  = "size"
)

// BindQuery applies grid state from a query string. Unknown column IDs and
// unsupported sizes coming from the browser are ignored.
func (t *Table[T]) BindQuery(q url.Values) {
	if q.Has(ParamHide) || q.Has(ParamShow) {
		hidden := splitIDs(q.Get(ParamHide))
		shown := splitIDs(q.Get(ParamShow))
		for i := range t.columns {
			id := t.columns[i].ID
			switch {
			case hidden[id]:
				t.columns[i].Hide = true
			case shown[id]:
				t.columns[i].Hide = false
			}
		}
		t.invalidate()
	}
	if sortID := q.Get(ParamSort); sortID != "" {
		dir := SortDir(q.Get(ParamDir))
		if dir == SortNone {
			dir = SortAsc
		}
		_ = t.SortBy(sortID, dir)
	}
	if size, err := strconv.Atoi(q.Get(ParamSize)); err == nil {
		_ = t.EnablePagination(size)
	}
	t.SetQuickFilter(q.Get(ParamQuick))
	if page, err := strconv.Atoi(q.Get(ParamPage)); err == nil {
		t.SetPage(page)
	}
}

// State encodes the grid state as query parameters. Only columns whose
// visibility differs from the descriptor default are listed.
func (t *Table[T]) State() url.Values {
	q := url.Values{}
	if t.quick != "" {
		q.Set(ParamQuick, t.quick)
	}
	var hide, show []string
	for i, col := range t.columns {
		def := t.initialHide[i]
		switch {
		case col.Hide && !def:
			hide = append(hide, col.ID)
		case !col.Hide && def:
			show = append(show, col.ID)
		}
	}
	if len(hide) > 0 {
		q.Set(ParamHide, strings.Join(hide, ","))
	}
	if len(show) > 0 {
		q.Set(ParamShow, strings.Join(show, ","))
	}
	if t.sortID != "" && t.sortDir != SortNone {
		q.Set(ParamSort, t.sortID)
		q.Set(ParamDir, string(t.sortDir))
	}
	if t.pagination {
		q.Set(ParamSize, strconv.Itoa(t.pageSize))
		if t.page > 1 {
			q.Set(ParamPage, strconv.Itoa(t.page))
		}
	}
	return q
}

func gridParam(key string) bool {
	switch key {
	case ParamQuick, ParamHide, ParamShow, ParamSort, ParamDir, ParamPage, ParamSize:
		return true
	}
	return false
}

func splitIDs(raw string) map[string]bool {
	out := map[string]bool{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out[part] = true
		}
	}
	return out
}
