// Package datatable renders searchable, sortable grids over arbitrary row types.
package datatable

import (
	"errors"
	"html/template"
)

// Pin places a column at the left or right edge of the grid.
type Pin string

const (
	PinNone  Pin = ""
	PinLeft  Pin = "left"
	PinRight Pin = "right"
)

// SortDir orders rows by a column.
type SortDir string

const (
	SortNone SortDir = ""
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

// Column errors.
var (
	ErrColumnID        = errors.New("datatable: column id required")
	ErrDuplicateColumn = errors.New("datatable: duplicate column id")
	ErrUnknownColumn   = errors.New("datatable: unknown column")
	ErrNotSortable     = errors.New("datatable: column not sortable")
	ErrPageSize        = errors.New("datatable: unsupported page size")
)

// Column describes one grid column over rows of type T.
type Column[T any] struct {
	// ID is the stable identifier used for visibility, sort and query state.
	ID     string
	Header string
	Pinned Pin
	Align  string

	Width    int
	MinWidth int
	MaxWidth int

	Hide bool

	// RowNumber renders the 1-based display index instead of a value.
	RowNumber bool

	DisableSort   bool
	DisableFilter bool
	DisableExport bool

	// Value is the plain text used for filtering, sorting and export.
	Value func(row T) string
	// Render optionally overrides the HTML cell.
	Render func(row T, index int) template.HTML
}

func (c Column[T]) sortable() bool {
	return !c.DisableSort && !c.RowNumber && c.Value != nil
}

func (c Column[T]) filterable() bool {
	return !c.DisableFilter && !c.RowNumber && c.Value != nil
}

func (c Column[T]) exportable() bool {
	return !c.DisableExport && !c.RowNumber && c.Value != nil
}

func (c Column[T]) text(row T) string {
	if c.Value == nil {
		return ""
	}
	return c.Value(row)
}

// ColumnState is the per-column UI state merged back by identifier.
type ColumnState struct {
	ID     string `json:"id"`
	Hide   bool   `json:"hide"`
	Pinned Pin    `json:"pinned,omitempty"`
}
