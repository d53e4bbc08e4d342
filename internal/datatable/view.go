package datatable

import (
	"html/template"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// HeaderCell is one rendered column header.
type HeaderCell struct {
	ID       string
	Label    string
	Pinned   Pin
	Align    string
	Style    template.CSS
	Sortable bool
	SortDir  SortDir
	SortURL  string
}

// Cell is one rendered value.
type Cell struct {
	HTML   template.HTML
	Align  string
	Pinned Pin
}

// RowView is one rendered row.
type RowView struct {
	Cells []Cell
}

// MenuItem is an entry in the column visibility menu.
type MenuItem struct {
	ID        string
	Label     string
	Visible   bool
	ToggleURL string
}

// PageLink targets another page or size.
type PageLink struct {
	Label  string
	URL    string
	Active bool
}

// View is the template model of a table.
type View struct {
	Headers      []HeaderCell
	Rows         []RowView
	PinnedBottom []RowView
	Menu         []MenuItem
	Quick        string
	Hidden       map[string]string
	Empty        bool
	EmptyText    string
	Page         PageInfo
	PrevURL      string
	NextURL      string
	Sizes        []PageLink
	ExportURL    string
}

// View renders the current state. base is the page URL; links keep its path
// and replace the grid parameters. exportPath may be empty.
func (t *Table[T]) View(base *url.URL, exportPath string) View {
	cols := t.VisibleColumns()
	state := t.State()
	page := t.Page()

	v := View{
		Quick:     t.quick,
		EmptyText: t.emptyText,
		Page:      page,
		Hidden:    map[string]string{},
	}
	for key, values := range base.Query() {
		if !gridParam(key) && len(values) > 0 {
			v.Hidden[key] = values[0]
		}
	}
	for key, values := range state {
		if key != ParamQuick && key != ParamPage && len(values) > 0 {
			v.Hidden[key] = values[0]
		}
	}

	for _, col := range cols {
		h := HeaderCell{
			ID:       col.ID,
			Label:    col.Header,
			Pinned:   col.Pinned,
			Align:    col.Align,
			Style:    widthStyle(col),
			Sortable: col.sortable(),
		}
		if col.ID == t.sortID {
			h.SortDir = t.sortDir
		}
		if h.Sortable {
			next := nextSort(h.SortDir)
			h.SortURL = link(base, state, func(q url.Values) {
				q.Del(ParamPage)
				if next == SortNone {
					q.Del(ParamSort)
					q.Del(ParamDir)
					return
				}
				q.Set(ParamSort, col.ID)
				q.Set(ParamDir, string(next))
			})
		}
		v.Headers = append(v.Headers, h)
	}

	offset := 0
	if page.Enabled && page.From > 0 {
		offset = page.From - 1
	}
	for i, row := range t.PageRows() {
		v.Rows = append(v.Rows, renderRow(cols, row, offset+i, false))
	}
	for i, row := range t.pinnedBottom {
		v.PinnedBottom = append(v.PinnedBottom, renderRow(cols, row, i, true))
	}
	v.Empty = len(v.Rows) == 0

	for _, col := range t.columns {
		if col.RowNumber {
			continue
		}
		id, hidden := col.ID, col.Hide
		v.Menu = append(v.Menu, MenuItem{
			ID:      id,
			Label:   menuLabel(col),
			Visible: !hidden,
			ToggleURL: link(base, state, func(q url.Values) {
				toggleParam(q, id, hidden, t.initialHide[t.index[id]])
			}),
		})
	}

	if page.Enabled {
		if page.Page > 1 {
			v.PrevURL = link(base, state, func(q url.Values) {
				if page.Page == 2 {
					q.Del(ParamPage)
					return
				}
				q.Set(ParamPage, strconv.Itoa(page.Page-1))
			})
		}
		if page.Page < page.Pages {
			v.NextURL = link(base, state, func(q url.Values) { q.Set(ParamPage, strconv.Itoa(page.Page+1)) })
		}
		for _, size := range PageSizes {
			v.Sizes = append(v.Sizes, PageLink{
				Label:  strconv.Itoa(size),
				Active: size == page.Size,
				URL: link(base, state, func(q url.Values) {
					q.Del(ParamPage)
					q.Set(ParamSize, strconv.Itoa(size))
				}),
			})
		}
	}

	if exportPath != "" {
		exportBase := &url.URL{Path: exportPath, RawQuery: base.RawQuery}
		v.ExportURL = link(exportBase, state, func(q url.Values) {
			q.Del(ParamPage)
			q.Del(ParamSize)
		})
	}
	return v
}

func renderRow[T any](cols []Column[T], row T, index int, pinned bool) RowView {
	cells := make([]Cell, len(cols))
	for i, col := range cols {
		var html template.HTML
		switch {
		case col.RowNumber:
			if !pinned {
				html = template.HTML(strconv.Itoa(index + 1))
			}
		case col.Render != nil:
			html = col.Render(row, index)
		default:
			html = template.HTML(template.HTMLEscapeString(col.text(row)))
		}
		cells[i] = Cell{HTML: html, Align: col.Align, Pinned: col.Pinned}
	}
	return RowView{Cells: cells}
}

func menuLabel[T any](col Column[T]) string {
	if col.Header != "" {
		return col.Header
	}
	return col.ID
}

func widthStyle[T any](col Column[T]) template.CSS {
	var parts []string
	if col.Width > 0 {
		parts = append(parts, "width:"+strconv.Itoa(col.Width)+"px")
	}
	if col.MinWidth > 0 {
		parts = append(parts, "min-width:"+strconv.Itoa(col.MinWidth)+"px")
	}
	if col.MaxWidth > 0 {
		parts = append(parts, "max-width:"+strconv.Itoa(col.MaxWidth)+"px")
	}
	return template.CSS(strings.Join(parts, ";"))
}

func nextSort(current SortDir) SortDir {
	switch current {
	case SortAsc:
		return SortDesc
	case SortDesc:
		return SortNone
	default:
		return SortAsc
	}
}

// toggleParam rewrites hide/show so the column flips relative to its default.
func toggleParam(q url.Values, id string, hidden, defaultHidden bool) {
	hide := splitIDs(q.Get(ParamHide))
	show := splitIDs(q.Get(ParamShow))
	delete(hide, id)
	delete(show, id)
	wantHidden := !hidden
	if wantHidden != defaultHidden {
		if wantHidden {
			hide[id] = true
		} else {
			show[id] = true
		}
	}
	setIDs(q, ParamHide, hide)
	setIDs(q, ParamShow, show)
}

func setIDs(q url.Values, key string, ids map[string]bool) {
	if len(ids) == 0 {
		q.Del(key)
		return
	}
	list := make([]string, 0, len(ids))
	for id := range ids {
		list = append(list, id)
	}
	slices.Sort(list)
	q.Set(key, strings.Join(list, ","))
}

// link keeps the page's own query parameters (filters outside the grid) and
// replaces the grid parameters with state.
func link(base *url.URL, state url.Values, mutate func(url.Values)) string {
	q := url.Values{}
	for k, v := range base.Query() {
		if !gridParam(k) {
			q[k] = v
		}
	}
	for k, v := range state {
		q[k] = append([]string(nil), v...)
	}
	mutate(q)
	u := url.URL{Path: base.Path, RawQuery: q.Encode()}
	return u.String()
}
