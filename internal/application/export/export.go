// Package export serializes ledger rows for download: CSV, and XLSX with an extra
// "Series" sheet for multi-year records.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"carbon-registry/internal/application/methodology"
	"carbon-registry/internal/domain"

	"github.com/xuri/excelize/v2"
)

// Formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

const (
	sheetEmissions = "Emissions"
	sheetSeries    = "Series"
)

// Columns is the header row of every export.
var Columns = []string{
	"emission_id", "project_id", "methodology", "record_date",
	"quantity_tco2e", "notes", "created_at", "inputs", "outputs",
}

var seriesColumns = []string{
	"emission_id", "methodology", "Year", "Baseline (tCO2e)", "Project (tCO2e)", "ER (tCO2e)",
}

// Write serializes rows in format.
func Write(w io.Writer, format string, rows []domain.Emission) error {
	switch format {
	case FormatCSV, "":
		return WriteCSV(w, rows)
	case FormatXLSX:
		return WriteXLSX(w, rows)
	}
	return domain.Invalid("format", "must be one of %s, %s, got %q", FormatCSV, FormatXLSX, format)
}

// ContentType is the MIME type for format.
func ContentType(format string) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// FileName is the suggested attachment name.
func FileName(format string, at time.Time) string {
	if format == "" {
		format = FormatCSV
	}
	return fmt.Sprintf("emissions_%s.%s", at.UTC().Format("20060102_150405"), format)
}

func record(e domain.Emission) []string {
	projectID := ""
	if e.ProjectID != nil {
		projectID = *e.ProjectID
	}
	return []string{
		e.EmissionID,
		projectID,
		e.Methodology,
		e.RecordDate,
		strconv.FormatFloat(e.QuantityTCO2e, 'f', -1, 64),
		e.Notes,
		e.CreatedAt.UTC().Format(time.RFC3339Nano),
		string(e.Inputs),
		string(e.Outputs),
	}
}

func WriteCSV(w io.Writer, rows []domain.Emission) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, e := range rows {
		if err := cw.Write(record(e)); err != nil {
			return fmt.Errorf("failed to write row %s: %w", e.EmissionID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// yearlyTable returns the crediting-period series of a record, if its outputs carry one.
func yearlyTable(e domain.Emission) []methodology.YearRow {
	var out struct {
		YearlyTable []methodology.YearRow `json:"yearly_table"`
	}
	if len(e.Outputs) == 0 || json.Unmarshal(e.Outputs, &out) != nil {
		return nil
	}
	return out.YearlyTable
}

func WriteXLSX(w io.Writer, rows []domain.Emission) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetEmissions); err != nil {
		return err
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2E7D32"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeSheetHeader(f, sheetEmissions, Columns, header); err != nil {
		return err
	}
	for i, e := range rows {
		rec := record(e)
		values := make([]interface{}, len(rec))
		for j, v := range rec {
			values[j] = v
		}
		values[4] = e.QuantityTCO2e
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetEmissions, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %s: %w", e.EmissionID, err)
		}
	}

	next := 2
	for _, e := range rows {
		table := yearlyTable(e)
		if len(table) == 0 {
			continue
		}
		if next == 2 {
			if _, err := f.NewSheet(sheetSeries); err != nil {
				return err
			}
			if err := writeSheetHeader(f, sheetSeries, seriesColumns, header); err != nil {
				return err
			}
		}
		for _, y := range table {
			cell, _ := excelize.CoordinatesToCellName(1, next)
			values := []interface{}{e.EmissionID, e.Methodology, y.Year, y.BaselineTCO2e, y.ProjectTCO2e, y.ERTCO2e}
			if err := f.SetSheetRow(sheetSeries, cell, &values); err != nil {
				return err
			}
			next++
		}
	}

	return f.Write(w)
}

func writeSheetHeader(f *excelize.File, sheet string, columns []string, style int) error {
	values := make([]interface{}, len(columns))
	for i, c := range columns {
		values[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &values); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
