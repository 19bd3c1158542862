// Package export renders document listings as spreadsheets.
package export

import (
	"fmt"
	"io"

	appsales "github.com/erp/salescore/internal/application/sales"
	"github.com/xuri/excelize/v2"
)

// ContentTypeXLSX is the media type of the workbook written by WriteDocuments.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const sheetName = "Documents"

var documentHeadings = []any{
	"Document No", "Date", "Due Date", "Customer Code", "Customer Name", "Reference",
	"Status", "Transfer Status", "Currency", "Sub Total", "Discount", "Tax", "Net Total",
}

// documentColumnWidths line up with documentHeadings.
var documentColumnWidths = []float64{18, 12, 12, 14, 32, 18, 12, 16, 10, 14, 12, 12, 14}

// FileName returns the download name for an export of docType.
func FileName(docType string, stamp string) string {
	return fmt.Sprintf("%s-%s.xlsx", docType, stamp)
}

// BuildDocumentWorkbook lays docs out one per row under a bold heading row.
// The caller owns the returned file and must Close it.
func BuildDocumentWorkbook(docs []appsales.DocumentResponse) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		_ = f.Close()
		return nil, err
	}

	if err := writeHeader(f); err != nil {
		_ = f.Close()
		return nil, err
	}

	for i, d := range docs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, documentRow(d)); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	return f, nil
}

// WriteDocuments streams the workbook for docs to w.
func WriteDocuments(w io.Writer, docs []appsales.DocumentResponse) error {
	f, err := BuildDocumentWorkbook(docs)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func writeHeader(f *excelize.File) error {
	if err := f.SetSheetRow(sheetName, "A1", &documentHeadings); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(documentHeadings), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", last, style); err != nil {
		return err
	}
	for i, width := range documentColumnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return err
		}
	}
	return f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func documentRow(d appsales.DocumentResponse) *[]any {
	due := ""
	if d.DueDate != nil {
		due = d.DueDate.String()
	}
	row := []any{
		d.DocumentNo,
		d.DocumentDate.String(),
		due,
		d.CustomerCode,
		d.CustomerName,
		d.Reference,
		d.Status,
		d.TransferStatus,
		d.CurrencyCode,
		d.SubTotal.InexactFloat64(),
		d.DiscountAmount.InexactFloat64(),
		d.TaxAmount.InexactFloat64(),
		d.NetTotal.InexactFloat64(),
	}
	return &row
}
