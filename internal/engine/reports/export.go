package reports

import (
	"bytes"
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"propertyhub/internal/engine/payments"
	"propertyhub/internal/pkg/dates"
	apperrors "propertyhub/internal/pkg/errors"
)

const paymentsSheet = "Payments"

var paymentHeaders = []string{
	"Due Date", "Tenant", "Unit", "Type", "Description",
	"Amount (RM)", "Paid (RM)", "Outstanding (RM)", "Status", "Paid Date",
}

var paymentColumnWidths = []float64{12, 28, 10, 18, 36, 14, 14, 16, 12, 12}

// ExportPaymentsXLSX renders every payment due in [from, to] as a workbook
// with a header row, one row per payment and a totals row.
func (s *Service) ExportPaymentsXLSX(ctx context.Context, from, to string) ([]byte, error) {
	var errs apperrors.ValidationErrors
	errs.AddErr("from", dates.Valid("from", from))
	errs.AddErr("to", dates.Valid("to", to))
	if err := errs.Err(); err != nil {
		return nil, err
	}
	if to < from {
		return nil, apperrors.NewValidationError("to", "must not be before from")
	}

	list, err := s.payments.ListPayments(ctx, payments.ListFilter{DueFrom: from, DueTo: to})
	if err != nil {
		return nil, err
	}
	return writePaymentsWorkbook(list)
}

func writePaymentsWorkbook(list []*payments.Payment) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(paymentsSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for col, header := range paymentHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(paymentsSheet, cell, header); err != nil {
			return nil, err
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(paymentsSheet, name, name, paymentColumnWidths[col]); err != nil {
			return nil, err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(paymentHeaders), 1)
	if err := f.SetCellStyle(paymentsSheet, "A1", last, headerStyle); err != nil {
		return nil, err
	}

	totalAmount, totalPaid, totalOutstanding := decimal.Zero, decimal.Zero, decimal.Zero
	row := 2
	for _, p := range list {
		paidDate := ""
		if p.PaidDate != nil {
			paidDate = *p.PaidDate
		}
		values := []interface{}{
			p.DueDate, p.TenantName, p.UnitNumber, p.PaymentTypeName, p.Description,
			p.Amount.InexactFloat64(), p.PaidAmount.InexactFloat64(), p.Outstanding().InexactFloat64(),
			p.EffectiveStatus, paidDate,
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(paymentsSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", row, err)
		}
		totalAmount = totalAmount.Add(p.Amount)
		totalPaid = totalPaid.Add(p.PaidAmount)
		totalOutstanding = totalOutstanding.Add(p.Outstanding())
		row++
	}

	totals := []interface{}{
		"Total", "", "", "", fmt.Sprintf("%d payments", len(list)),
		totalAmount.InexactFloat64(), totalPaid.InexactFloat64(), totalOutstanding.InexactFloat64(),
	}
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetSheetRow(paymentsSheet, cell, &totals); err != nil {
		return nil, fmt.Errorf("write totals: %w", err)
	}

	if err := f.SetPanes(paymentsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
