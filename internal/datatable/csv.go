package datatable

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	csvFlushEvery = 200
	csvBufferSize = 32 * 1024
	// utf8BOM lets spreadsheet tools detect Cyrillic text.
	utf8BOM = "\ufeff"
)

type csvStreamer struct {
	buf          *bufio.Writer
	csv          *csv.Writer
	flushEvery   int
	pendingLines int
}

func newCSVStreamer(w io.Writer) *csvStreamer {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	writer := csv.NewWriter(buf)
	writer.UseCRLF = true
	return &csvStreamer{buf: buf, csv: writer, flushEvery: csvFlushEvery}
}

func (s *csvStreamer) writeRaw(text string) error {
	if s == nil || s.buf == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	_, err := s.buf.WriteString(text)
	return err
}

func (s *csvStreamer) writeRow(row []string) error {
	if s == nil || s.csv == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	if err := s.csv.Write(row); err != nil {
		return err
	}
	s.pendingLines++
	if s.flushEvery > 0 && s.pendingLines >= s.flushEvery {
		return s.Flush()
	}
	return nil
}

func (s *csvStreamer) Flush() error {
	if s == nil || s.csv == nil || s.buf == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return err
	}
	if err := s.buf.Flush(); err != nil {
		return err
	}
	s.pendingLines = 0
	return nil
}

func (s *csvStreamer) Close() error {
	return s.Flush()
}

// WriteCSV exports the visible, exportable columns of every filtered row,
// followed by the pinned bottom rows.
func (t *Table[T]) WriteCSV(w io.Writer) error {
	cols := t.exportColumns()
	streamer := newCSVStreamer(w)
	if err := streamer.writeRaw(utf8BOM); err != nil {
		return err
	}
	header := make([]string, len(cols))
	for i, col := range cols {
		header[i] = col.Header
	}
	if err := streamer.writeRow(header); err != nil {
		return err
	}
	write := func(rows []T) error {
		for _, row := range rows {
			record := make([]string, len(cols))
			for i, col := range cols {
				record[i] = col.text(row)
			}
			if err := streamer.writeRow(record); err != nil {
				return err
			}
		}
		return nil
	}
	if err := write(t.Rows()); err != nil {
		return err
	}
	if err := write(t.pinnedBottom); err != nil {
		return err
	}
	return streamer.Close()
}

// ServeCSV writes the export as a file download.
func (t *Table[T]) ServeCSV(w http.ResponseWriter) error {
	name := strings.ReplaceAll(t.fileName, `"`, "")
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	return t.WriteCSV(w)
}

func (t *Table[T]) exportColumns() []Column[T] {
	visible := t.VisibleColumns()
	out := make([]Column[T], 0, len(visible))
	for _, col := range visible {
		if col.exportable() {
			out = append(out, col)
		}
	}
	return out
}

// Records returns the export as text: the header followed by the filtered
// rows and the pinned bottom rows.
func (t *Table[T]) Records() [][]string {
	cols := t.exportColumns()
	rows := t.Rows()
	out := make([][]string, 0, 1+len(rows)+len(t.pinnedBottom))
	header := make([]string, len(cols))
	for i, col := range cols {
		header[i] = col.Header
	}
	out = append(out, header)
	for _, group := range [][]T{rows, t.pinnedBottom} {
		for _, row := range group {
			record := make([]string, len(cols))
			for i, col := range cols {
				record[i] = col.text(row)
			}
			out = append(out, record)
		}
	}
	return out
}
