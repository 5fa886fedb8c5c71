// Package export writes resource lists to Excel workbooks.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"travel_booking/internal/domain"
)

// Sheet is one kind's records, written to a sheet named after the kind.
type Sheet struct {
	Kind  *domain.Kind
	Items []domain.Entity
}

// Workbook builds a workbook with one sheet per kind and a bold header row.
type Workbook struct {
	file   *excelize.File
	sheets int
}

func NewWorkbook() *Workbook {
	return &Workbook{file: excelize.NewFile()}
}

func (w *Workbook) Add(s Sheet) error {
	name := s.Kind.Path
	// Excel limit
	if len(name) > 31 {
		name = name[:31]
	}
	if w.sheets == 0 {
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	w.sheets++

	header := []any{"ID"}
	for _, f := range s.Kind.Fields {
		header = append(header, f.Label)
	}
	header = append(header, "Created", "Updated")
	if err := w.file.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}

	style, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		end, _ := excelize.CoordinatesToCellName(len(header), 1)
		_ = w.file.SetCellStyle(name, "A1", end, style)
	}

	for i, e := range s.Items {
		row := []any{e.GetID()}
		for _, f := range s.Kind.Fields {
			row = append(row, e.Get(f.Name))
		}
		created, updated := e.Times()
		row = append(row, stamp(created), stamp(updated))

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := w.file.SetSheetRow(name, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func (w *Workbook) Write(wr io.Writer) error { return w.file.Write(wr) }

func (w *Workbook) SaveAs(path string) error { return w.file.SaveAs(path) }

func (w *Workbook) Close() error { return w.file.Close() }
