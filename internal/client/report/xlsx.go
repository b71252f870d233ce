package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/manholepro/internal/client/models"
	"github.com/xuri/excelize/v2"
)

const (
	InspectionsSheet = "Inspections"
	ConnectionsSheet = "Connections"
)

// InspectionsHeader lists the columns of the inspections sheet.
var InspectionsHeader = []string{
	"ID",
	"Created At",
	"Date",
	"Time",
	"Inspector",
	"Site/Job",
	"Manhole ID",
	"System",
	"Latitude",
	"Longitude",
	"Accuracy (m)",
	"Access Cover Size",
	"Access Type",
	"Depth to Chamber Invert (m)",
	"Features",
	"Connections",
	"Observations",
}

// ConnectionsHeader lists the columns of the connections sheet.
var ConnectionsHeader = []string{
	"Inspection ID",
	"Manhole ID",
	"#",
	"Position (°)",
	"Depth to Invert (m)",
	"Diameter (mm)",
	"Notes",
}

// WriteXLSX writes items as a workbook with one row per inspection and one
// row per pipe connection. Images are not exported.
func WriteXLSX(w io.Writer, items []models.Inspection) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(InspectionsSheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if _, err := f.NewSheet(ConnectionsSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeHeader(f, InspectionsSheet, InspectionsHeader, headerStyle); err != nil {
		return err
	}
	if err := writeHeader(f, ConnectionsSheet, ConnectionsHeader, headerStyle); err != nil {
		return err
	}

	connRow := 2
	for i, rec := range items {
		if err := writeRow(f, InspectionsSheet, i+2, inspectionRow(rec)); err != nil {
			return err
		}
		for n, p := range rec.Connections {
			row := []any{rec.ID, rec.ManholeID, n + 1, cellNumber(p.PositionDeg), cellNumber(p.DepthInvertM),
				cellNumber(p.PipeDiameterMM), ""}
			if p.Notes != nil {
				row[6] = *p.Notes
			}
			if err := writeRow(f, ConnectionsSheet, connRow, row); err != nil {
				return err
			}
			connRow++
		}
	}

	for _, sheet := range []string{InspectionsSheet, ConnectionsSheet} {
		if err := f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return fmt.Errorf("failed to freeze panes: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func inspectionRow(rec models.Inspection) []any {
	var lat, lon, acc any
	if rec.Location != nil {
		lat, lon, acc = cellNumber(rec.Location.Lat), cellNumber(rec.Location.Lon), cellNumber(rec.Location.Acc)
	}
	return []any{
		rec.ID,
		rec.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		rec.Date,
		rec.Time,
		rec.Inspector,
		rec.SiteCode,
		rec.ManholeID,
		rec.SystemType,
		lat,
		lon,
		acc,
		rec.AccessCoverSize,
		string(rec.AccessType),
		cellNumber(rec.DepthChamberInvertM),
		strings.Join(rec.Features.Labels(), ", "),
		len(rec.Connections),
		rec.Observations,
	}
}

// cellNumber leaves the cell empty for a missing value.
func cellNumber(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheet, name, name, float64(max(12, len(header)+2))); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, v := range values {
		if v == nil || v == "" {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to set cell value at row %d, col %d: %w", row, col+1, err)
		}
	}
	return nil
}
