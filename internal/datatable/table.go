package datatable

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// PageSizes lists the supported page sizes.
var PageSizes = []int{10, 20, 50, 100}

// DefaultPageSize is used when pagination is enabled without a size.
const DefaultPageSize = 20

// Options configures a Table.
type Options struct {
	FileName   string
	Pagination bool
	PageSize   int
	EmptyText  string
}

// Table holds rows, column descriptors and the grid state.
type Table[T any] struct {
	columns      []Column[T]
	initialHide  []bool
	index        map[string]int
	rows         []T
	pinnedBottom []T

	quick       string
	view        []int
	viewCurrent bool

	sortID  string
	sortDir SortDir

	pagination bool
	pageSize   int
	page       int

	fileName  string
	emptyText string

	fold     cases.Caser
	collator *collate.Collator
}

// New builds a table. Every column needs a unique, non-empty ID without
// surrounding whitespace.
func New[T any](rows []T, columns []Column[T], opts Options) (*Table[T], error) {
	index := make(map[string]int, len(columns))
	initialHide := make([]bool, len(columns))
	for i, col := range columns {
		initialHide[i] = col.Hide
		id := col.ID
		if id == "" || strings.TrimSpace(id) != id {
			return nil, fmt.Errorf("%w: column %d (%q)", ErrColumnID, i, col.Header)
		}
		if _, exists := index[id]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateColumn, id)
		}
		index[id] = i
	}
	t := &Table[T]{
		columns:     slices.Clone(columns),
		initialHide: initialHide,
		index:       index,
		rows:        rows,
		fileName:    opts.FileName,
		emptyText:   opts.EmptyText,
		page:        1,
		fold:        cases.Fold(),
		collator:    collate.New(language.Mongolian, collate.IgnoreCase),
	}
	if t.fileName == "" {
		t.fileName = "export.csv"
	}
	if t.emptyText == "" {
		t.emptyText = "Мэдээлэл олдсонгүй"
	}
	if opts.Pagination {
		size := opts.PageSize
		if size == 0 {
			size = DefaultPageSize
		}
		if err := t.EnablePagination(size); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// MustNew is New for static column sets.
func MustNew[T any](rows []T, columns []Column[T], opts Options) *Table[T] {
	t, err := New(rows, columns, opts)
	if err != nil {
		panic(err)
	}
	return t
}

// SetRows replaces the row collection. A nil slice renders the empty state.
func (t *Table[T]) SetRows(rows []T) {
	t.rows = rows
	t.invalidate()
}

// SetPinnedBottom sets rows rendered after the data, outside filtering and sorting.
func (t *Table[T]) SetPinnedBottom(rows []T) {
	t.pinnedBottom = rows
}

// PinnedBottom returns the pinned rows.
func (t *Table[T]) PinnedBottom() []T {
	return t.pinnedBottom
}

// SetQuickFilter updates the free-text filter. Matching is deferred until rows are read.
func (t *Table[T]) SetQuickFilter(text string) {
	text = strings.TrimSpace(text)
	if text == t.quick {
		return
	}
	t.quick = text
	t.page = 1
	t.invalidate()
}

// QuickFilter returns the active filter text.
func (t *Table[T]) QuickFilter() string {
	return t.quick
}

// Columns returns a copy of the descriptors with their current state.
func (t *Table[T]) Columns() []Column[T] {
	return slices.Clone(t.columns)
}

// VisibleColumns returns the shown columns in display order: left pinned, unpinned, right pinned.
func (t *Table[T]) VisibleColumns() []Column[T] {
	var left, middle, right []Column[T]
	for _, col := range t.columns {
		if col.Hide {
			continue
		}
		switch col.Pinned {
		case PinLeft:
			left = append(left, col)
		case PinRight:
			right = append(right, col)
		default:
			middle = append(middle, col)
		}
	}
	out := make([]Column[T], 0, len(left)+len(middle)+len(right))
	out = append(out, left...)
	out = append(out, middle...)
	return append(out, right...)
}

// ToggleColumn flips the hide flag of one column.
func (t *Table[T]) ToggleColumn(id string) error {
	i, ok := t.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, id)
	}
	t.columns[i].Hide = !t.columns[i].Hide
	t.invalidate()
	return nil
}

// SetHidden sets the hide flag of one column.
func (t *Table[T]) SetHidden(id string, hide bool) error {
	i, ok := t.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, id)
	}
	if t.columns[i].Hide != hide {
		t.columns[i].Hide = hide
		t.invalidate()
	}
	return nil
}

// ColumnState snapshots hide and pin flags for every column.
func (t *Table[T]) ColumnState() []ColumnState {
	out := make([]ColumnState, len(t.columns))
	for i, col := range t.columns {
		out[i] = ColumnState{ID: col.ID, Hide: col.Hide, Pinned: col.Pinned}
	}
	return out
}

// ApplyColumnState merges hide and pin flags by column ID. Sort state is kept.
// Unknown IDs reject the whole update.
func (t *Table[T]) ApplyColumnState(states []ColumnState) error {
	for _, st := range states {
		if _, ok := t.index[st.ID]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownColumn, st.ID)
		}
	}
	for _, st := range states {
		i := t.index[st.ID]
		t.columns[i].Hide = st.Hide
		t.columns[i].Pinned = st.Pinned
	}
	t.invalidate()
	return nil
}

// SortBy orders rows by a sortable column. SortNone clears ordering.
func (t *Table[T]) SortBy(id string, dir SortDir) error {
	if dir == SortNone || id == "" {
		t.sortID, t.sortDir = "", SortNone
		t.invalidate()
		return nil
	}
	i, ok := t.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, id)
	}
	if !t.columns[i].sortable() {
		return fmt.Errorf("%w: %s", ErrNotSortable, id)
	}
	if dir != SortAsc && dir != SortDesc {
		dir = SortAsc
	}
	t.sortID, t.sortDir = id, dir
	t.invalidate()
	return nil
}

// Sort returns the active sort column and direction.
func (t *Table[T]) Sort() (string, SortDir) {
	return t.sortID, t.sortDir
}

// EnablePagination turns paging on with one of PageSizes.
func (t *Table[T]) EnablePagination(size int) error {
	if !slices.Contains(PageSizes, size) {
		return fmt.Errorf("%w: %d", ErrPageSize, size)
	}
	t.pagination = true
	t.pageSize = size
	t.page = 1
	return nil
}

// DisablePagination shows every row in one scrolling viewport.
func (t *Table[T]) DisablePagination() {
	t.pagination = false
	t.page = 1
}

// SetPage selects a 1-based page, clamped to the available range.
func (t *Table[T]) SetPage(page int) {
	t.page = page
	t.clampPage()
}

// Rows returns the filtered, sorted rows across all pages.
func (t *Table[T]) Rows() []T {
	view := t.currentView()
	out := make([]T, len(view))
	for i, idx := range view {
		out[i] = t.rows[idx]
	}
	return out
}

// PageRows returns the rows of the current page, or all rows without pagination.
func (t *Table[T]) PageRows() []T {
	rows := t.Rows()
	if !t.pagination {
		return rows
	}
	t.clampPage()
	start := (t.page - 1) * t.pageSize
	if start >= len(rows) {
		return nil
	}
	end := min(start+t.pageSize, len(rows))
	return rows[start:end]
}

// PageInfo describes the paging position.
type PageInfo struct {
	Enabled bool
	Page    int
	Size    int
	Pages   int
	Total   int
	From    int
	To      int
}

// Page returns the current paging position.
func (t *Table[T]) Page() PageInfo {
	total := len(t.currentView())
	info := PageInfo{Enabled: t.pagination, Page: 1, Pages: 1, Total: total, Size: total}
	if total > 0 {
		info.From, info.To = 1, total
	}
	if !t.pagination {
		return info
	}
	t.clampPage()
	info.Page = t.page
	info.Size = t.pageSize
	info.Pages = max(1, (total+t.pageSize-1)/t.pageSize)
	if total == 0 {
		info.From, info.To = 0, 0
		return info
	}
	info.From = (t.page-1)*t.pageSize + 1
	info.To = min(t.page*t.pageSize, total)
	return info
}

// FileName is the export file name.
func (t *Table[T]) FileName() string {
	return t.fileName
}

func (t *Table[T]) clampPage() {
	if !t.pagination {
		t.page = 1
		return
	}
	pages := max(1, (len(t.currentView())+t.pageSize-1)/t.pageSize)
	if t.page < 1 {
		t.page = 1
	}
	if t.page > pages {
		t.page = pages
	}
}

func (t *Table[T]) invalidate() {
	t.viewCurrent = false
}

// currentView recomputes the filtered and sorted index only when inputs changed.
func (t *Table[T]) currentView() []int {
	if t.viewCurrent {
		return t.view
	}
	t.view = t.filterIndexes()
	t.sortIndexes(t.view)
	t.viewCurrent = true
	return t.view
}

func (t *Table[T]) filterIndexes() []int {
	out := make([]int, 0, len(t.rows))
	terms := strings.Fields(t.fold.String(t.quick))
	var filterCols []Column[T]
	if len(terms) > 0 {
		for _, col := range t.columns {
			if !col.Hide && col.filterable() {
				filterCols = append(filterCols, col)
			}
		}
	}
	var b strings.Builder
	for i, row := range t.rows {
		if len(terms) == 0 {
			out = append(out, i)
			continue
		}
		b.Reset()
		for _, col := range filterCols {
			b.WriteString(col.text(row))
			b.WriteByte('\n')
		}
		haystack := t.fold.String(b.String())
		match := true
		for _, term := range terms {
			if !strings.Contains(haystack, term) {
				match = false
				break
			}
		}
		if match {
			out = append(out, i)
		}
	}
	return out
}

func (t *Table[T]) sortIndexes(view []int) {
	if t.sortID == "" || t.sortDir == SortNone {
		return
	}
	col := t.columns[t.index[t.sortID]]
	keys := make(map[int]string, len(view))
	for _, idx := range view {
		keys[idx] = col.text(t.rows[idx])
	}
	desc := t.sortDir == SortDesc
	sort.SliceStable(view, func(a, b int) bool {
		cmp := t.compare(keys[view[a]], keys[view[b]])
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
}

func (t *Table[T]) compare(a, b string) int {
	// Empty values sort last in ascending order.
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}
	fa, errA := strconv.ParseFloat(strings.ReplaceAll(a, ",", ""), 64)
	fb, errB := strconv.ParseFloat(strings.ReplaceAll(b, ",", ""), 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	return t.collator.CompareString(a, b)
}
