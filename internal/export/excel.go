// Package export renders monthly and yearly sales reports as xlsx workbooks.
package export

import (
	"fmt"
	"io"

	"dineadmin/internal/core"
	"dineadmin/internal/report"

	"github.com/xuri/excelize/v2"
)

const (
	SheetName   = "Sales Report"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	dateLayout  = "02/01/2006"
)

var (
	monthlyHeaders  = []string{"Bill No", "Date", "Table No", "Waiter", "Payment Mode", "Subtotal", "Discount", "SGST", "CGST", "Final Amount"}
	yearlyHeaders   = []string{"Bill No", "Date", "Month", "Payment Mode", "Total Amount", "Tax (SGST+CGST)", "Waiter"}
	customerHeaders = []string{"Customer Name", "Mobile", "Email"}
)

// MonthlyFilename returns e.g. Monthly_Report_2024-03.xlsx.
func MonthlyFilename(year, month int) string {
	return fmt.Sprintf("Monthly_Report_%04d-%02d.xlsx", year, month)
}

func YearlyFilename(year int) string {
	return fmt.Sprintf("Yearly_Report_%04d.xlsx", year)
}

// ExportMonthly writes one row per order with the tax split in SGST and CGST.
func ExportMonthly(w io.Writer, orders []core.Order, withCustomer bool) error {
	rows := make([][]any, 0, len(orders))
	for _, o := range orders {
		sgst, cgst := o.Tax.OrZero().Half()
		row := []any{
			o.BillLabel(),
			o.CreatedAt.Format(dateLayout),
			tableCell(o.TableNumber),
			orNA(o.WaiterName),
			orNA(o.PaymentMode),
			o.Subtotal.OrZero().Rupees(),
			o.Discount.OrZero().Rupees(),
			sgst.Rupees(),
			cgst.Rupees(),
			o.GrandTotal.OrZero().Rupees(),
		}
		rows = append(rows, withContact(row, o, withCustomer))
	}
	return write(w, headers(monthlyHeaders, withCustomer), rows)
}

// ExportYearly writes one row per order with the combined tax.
func ExportYearly(w io.Writer, orders []core.Order, withCustomer bool) error {
	rows := make([][]any, 0, len(orders))
	for _, o := range orders {
		row := []any{
			o.BillLabel(),
			o.CreatedAt.Format(dateLayout),
			o.CreatedAt.Month().String(),
			orNA(o.PaymentMode),
			o.GrandTotal.OrZero().Rupees(),
			o.Tax.OrZero().Rupees(),
			orNA(o.WaiterName),
		}
		rows = append(rows, withContact(row, o, withCustomer))
	}
	return write(w, headers(yearlyHeaders, withCustomer), rows)
}

func headers(base []string, withCustomer bool) []string {
	out := append([]string(nil), base...)
	if withCustomer {
		out = append(out, customerHeaders...)
	}
	return out
}

func withContact(row []any, o core.Order, withCustomer bool) []any {
	if !withCustomer {
		return row
	}
	name, mobile, email := report.ContactOf(o)
	return append(row, name, mobile, email)
}

func write(w io.Writer, header []string, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E0E0E0"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	cells := make([]any, len(header))
	for i, h := range header {
		cells[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &cells); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if err := f.SetColWidth(SheetName, "A", lastCol, 16); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func tableCell(n int) any {
	if n <= 0 {
		return "N/A"
	}
	return n
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
