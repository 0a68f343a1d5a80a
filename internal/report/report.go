// Package report renders billing reports as spreadsheet and CSV files.
package report

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/xuri/excelize/v2"
	"marketplace-backend/internal/billing"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/service"
)

const (
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	CSVContentType  = "text/csv"

	monthlySheet = "Monthly"
	debtorsSheet = "Debtors"
)

var monthlyHeader = []string{"Lease ID", "Owner ID", "Asset", "Interval", "Expected", "Paid", "Attendance", "Status"}

// MonthlyXLSX writes one row per lease followed by a totals row.
func MonthlyXLSX(rep service.MonthlyReport) ([]byte, error) {
	f, err := newWorkbook(monthlySheet)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	writeRow(f, monthlySheet, 1, toAny(monthlyHeader))
	row := 2
	for _, r := range rep.Rows {
		writeRow(f, monthlySheet, row, []any{
			r.Lease.ID,
			r.Lease.OwnerID,
			assetLabel(r.Lease),
			string(r.Lease.PaymentInterval),
			r.Expected.InexactFloat64(),
			r.Paid.InexactFloat64(),
			r.AttendanceCount,
			string(r.Status),
		})
		row++
	}
	writeRow(f, monthlySheet, row, []any{"Total " + rep.Month.String(), "", "", "", rep.TotalExpected.InexactFloat64(), rep.TotalPaid.InexactFloat64()})

	_ = f.SetColWidth(monthlySheet, "A", "B", 10)
	_ = f.SetColWidth(monthlySheet, "C", "C", 16)
	_ = f.SetColWidth(monthlySheet, "D", "D", 10)
	_ = f.SetColWidth(monthlySheet, "E", "F", 16)
	_ = f.SetColWidth(monthlySheet, "G", "H", 14)
	styleHeader(f, monthlySheet, "A1", "H1")
	return finish(f)
}

// MonthlyCSV is the CSV twin of MonthlyXLSX without the totals row.
func MonthlyCSV(rep service.MonthlyReport) ([]byte, error) {
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	_ = w.Write(monthlyHeader)
	for _, r := range rep.Rows {
		_ = w.Write([]string{
			strconv.FormatInt(r.Lease.ID, 10),
			strconv.FormatInt(r.Lease.OwnerID, 10),
			assetLabel(r.Lease),
			string(r.Lease.PaymentInterval),
			r.Expected.String(),
			r.Paid.String(),
			strconv.Itoa(r.AttendanceCount),
			string(r.Status),
		})
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// DebtorsXLSX lists indebted leases with one column per unpaid month.
func DebtorsXLSX(debtors []billing.LeaseDebt) ([]byte, error) {
	f, err := newWorkbook(debtorsSheet)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	writeRow(f, debtorsSheet, 1, []any{"Lease ID", "Owner ID", "Asset", "Total debt", "Months owed", "First unpaid"})
	for i, d := range debtors {
		owed, first := 0, ""
		for _, m := range d.Months {
			if !m.Shortfall.IsPositive() {
				continue
			}
			if owed == 0 {
				first = m.Month.String()
			}
			owed++
		}
		writeRow(f, debtorsSheet, i+2, []any{
			d.Lease.ID,
			d.Lease.OwnerID,
			assetLabel(d.Lease),
			d.Total.InexactFloat64(),
			owed,
			first,
		})
	}
	_ = f.SetColWidth(debtorsSheet, "A", "B", 10)
	_ = f.SetColWidth(debtorsSheet, "C", "F", 16)
	styleHeader(f, debtorsSheet, "A1", "F1")
	return finish(f)
}

func newWorkbook(sheet string) (*excelize.File, error) {
	f := excelize.NewFile()
	index, err := f.NewSheet(sheet)
	if err != nil {
		f.Close()
		return nil, err
	}
	_ = f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)
	return f, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) {
	for c, v := range values {
		cell, _ := excelize.CoordinatesToCellName(c+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func styleHeader(f *excelize.File, sheet, from, to string) {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F2937"}, Pattern: 1},
	})
	if err != nil {
		return
	}
	_ = f.SetCellStyle(sheet, from, to, style)
}

func finish(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func assetLabel(l domain.Lease) string {
	switch {
	case l.StoreID != nil:
		return "store " + strconv.FormatInt(*l.StoreID, 10)
	case l.StallID != nil:
		return "stall " + strconv.FormatInt(*l.StallID, 10)
	default:
		return ""
	}
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
