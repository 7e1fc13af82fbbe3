// Package document renders handoff protocols as spreadsheets for signing.
package document

import (
	"fmt"
	"time"

	"go-brindes-ws/internal/model"

	"github.com/xuri/excelize/v2"
)

const (
	sheetName   = "Protocol"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	dateLayout  = "02/01/2006"
)

var lineHeadings = []string{"#", "Kind", "Reference", "Item", "Quantity", "Note"}

// Renderer turns a protocol into an XLSX workbook.
type Renderer struct {
	Company string
	loc     *time.Location
}

func NewRenderer(company string) *Renderer {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		loc = time.UTC
	}
	return &Renderer{Company: company, loc: loc}
}

// Filename is the object/attachment name used for a protocol document.
func Filename(p *model.HandoffProtocol) string {
	return fmt.Sprintf("protocol-%s.xlsx", p.ID)
}

func (r *Renderer) Render(p *model.HandoffProtocol) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	header := [][2]interface{}{
		{"Handoff protocol", p.ID.String()},
		{"Issued by", r.Company},
		{"Client", p.ClientName},
		{"Document", p.ClientDocument},
		{"Contact", p.ContactName},
		{"Email", p.ClientEmail},
		{"Address", p.Address},
		{"Issued at", r.date(&p.CreatedAt)},
		{"Return due", r.date(p.DueAt)},
		{"Status", string(p.Status)},
	}
	for i, kv := range header {
		row := i + 1
		f.SetCellValue(sheetName, cell("A", row), kv[0])
		f.SetCellValue(sheetName, cell("B", row), kv[1])
	}
	if err := f.SetCellStyle(sheetName, "A1", cell("A", len(header)), bold); err != nil {
		return nil, err
	}

	start := len(header) + 2
	for i, h := range lineHeadings {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(sheetName, cell(col, start), h)
	}
	if err := f.SetCellStyle(sheetName, cell("A", start), cell("F", start), bold); err != nil {
		return nil, err
	}

	for i, l := range p.Lines {
		row := start + 1 + i
		f.SetCellValue(sheetName, cell("A", row), l.Position)
		f.SetCellValue(sheetName, cell("B", row), string(l.Kind))
		f.SetCellValue(sheetName, cell("C", row), l.Reference)
		f.SetCellValue(sheetName, cell("D", row), l.ResolvedName)
		f.SetCellValue(sheetName, cell("E", row), l.Quantity)
		f.SetCellValue(sheetName, cell("F", row), l.Note)
	}

	sig := start + len(p.Lines) + 3
	f.SetCellValue(sheetName, cell("A", sig), "Received by")
	f.SetCellValue(sheetName, cell("B", sig), "______________________________")
	f.SetCellValue(sheetName, cell("A", sig+1), "Date")
	f.SetCellValue(sheetName, cell("B", sig+1), "____/____/________")

	if p.Notes != "" {
		f.SetCellValue(sheetName, cell("A", sig+3), "Notes")
		f.SetCellValue(sheetName, cell("B", sig+3), p.Notes)
	}

	f.SetColWidth(sheetName, "A", "A", 18)
	f.SetColWidth(sheetName, "B", "D", 32)
	f.SetColWidth(sheetName, "F", "F", 40)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Renderer) date(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.In(r.loc).Format(dateLayout)
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
