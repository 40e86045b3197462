// Package export renders the attendance board and trip history as an
// XLSX workbook, the downloadable counterpart of the print views staff
// hand to auditors.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/graceworks/shelterops/internal/attendance"
	"github.com/graceworks/shelterops/internal/clock"
)

const (
	boardSheet = "Attendance"
	tripsSheet = "Trips"
)

// Filename returns the attachment name for a shelter's export.
func Filename(shelter string, now time.Time) string {
	return fmt.Sprintf("attendance-%s-%s.xlsx", shelter, clock.FormatDate(now))
}

// WriteWorkbook writes a two-sheet workbook to w: the attendance board
// and the per-resident trip history. All times render in local display
// format.
func WriteWorkbook(w io.Writer, shelter string, board []attendance.BoardEntry, trips []attendance.ResidentTrips) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", boardSheet); err != nil {
		return fmt.Errorf("failed to name board sheet: %w", err)
	}
	if _, err := f.NewSheet(tripsSheet); err != nil {
		return fmt.Errorf("failed to create trips sheet: %w", err)
	}

	if err := writeBoardSheet(f, shelter, board); err != nil {
		return err
	}
	if err := writeTripsSheet(f, trips); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeBoardSheet(f *excelize.File, shelter string, board []attendance.BoardEntry) error {
	header := []any{"Shelter", "Resident", "Code", "Phone", "Status", "Last Checkout", "Expected Back", "Returned", "Overdue"}
	if err := writeRow(f, boardSheet, 1, header); err != nil {
		return err
	}

	for i, entry := range board {
		status := "IN"
		if entry.Status.IsOut {
			status = "OUT"
		}
		overdue := ""
		if entry.Status.IsOverdue {
			overdue = "YES"
		}
		code := ""
		if entry.Resident.Code != nil {
			code = *entry.Resident.Code
		}
		row := []any{
			shelter,
			entry.Resident.FullName(),
			code,
			entry.Resident.Phone,
			status,
			displayOrEmpty(entry.Status.CheckoutTime),
			displayOrEmpty(entry.Status.ExpectedBackTime),
			displayOrEmpty(entry.Status.CheckinAfterCheckoutTime),
			overdue,
		}
		if err := writeRow(f, boardSheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeTripsSheet(f *excelize.File, trips []attendance.ResidentTrips) error {
	header := []any{"Resident", "Checked Out", "Expected Back", "Checked In", "Late", "Open", "Note"}
	if err := writeRow(f, tripsSheet, 1, header); err != nil {
		return err
	}

	rowNum := 2
	for _, rt := range trips {
		for _, trip := range rt.Trips {
			late, open := "", ""
			if trip.Late {
				late = "YES"
			}
			if trip.Open {
				open = "YES"
			}
			row := []any{
				rt.Resident.FullName(),
				clock.FormatDisplay(trip.CheckedOutAt),
				displayOrEmpty(trip.ExpectedBackAt),
				displayOrEmpty(trip.CheckedInAt),
				late,
				open,
				trip.Note,
			}
			if err := writeRow(f, tripsSheet, rowNum, row); err != nil {
				return err
			}
			rowNum++
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to build cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d of %s: %w", row, sheet, err)
	}
	return nil
}

func displayOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return clock.FormatDisplay(*t)
}
