package procpipe

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExcelProcessor renders every sheet of a workbook as a Markdown table.
// Merged ranges are flattened: the top-left anchor keeps the value, every
// other covered cell becomes an explicit empty string, so downstream
// consumers see a rectangular grid.
type ExcelProcessor struct {
	cfg Config
}

// NewExcelProcessor creates an Excel processor.
func NewExcelProcessor(cfg Config) *ExcelProcessor {
	cfg.defaults()
	return &ExcelProcessor{cfg: cfg}
}

func (p *ExcelProcessor) FileType() string { return "excel" }

func (p *ExcelProcessor) SupportedExtensions() []string {
	return []string{".xlsx", ".xls", ".xlsm"}
}

func (p *ExcelProcessor) Process(ctx context.Context, path string) *Result {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Failed(fmt.Sprintf("open workbook: %v", err), p.metadata(0))
	}
	defer f.Close()

	sheets := f.GetSheetList()

	var sb strings.Builder
	sb.WriteString("# " + filepath.Base(path) + "\n")

	rendered := 0
	for _, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return Failed(err.Error(), p.metadata(len(sheets)))
		}
		grid, err := sheetGrid(f, sheet)
		if err != nil {
			p.cfg.Logger.Warn("sheet read failed", "sheet", sheet, "error", err)
			continue
		}

		sb.WriteString("\n## " + sheet + "\n\n")
		if len(grid) == 0 {
			sb.WriteString("_sheet is empty_\n")
			rendered++
			continue
		}
		sb.WriteString(gridToMarkdown(grid))
		rendered++
	}

	if rendered == 0 {
		return Failed("no readable sheets in workbook", p.metadata(len(sheets)))
	}

	md := p.metadata(len(sheets))
	md["sheet_names"] = sheets
	return Succeeded(sb.String(), md)
}

func (p *ExcelProcessor) metadata(sheets int) map[string]any {
	return map[string]any{
		"file_type":    "excel",
		"sheets_count": sheets,
	}
}

// sheetGrid reads a sheet into a rectangular grid with merged ranges
// flattened to their anchor cell.
func sheetGrid(f *excelize.File, sheet string) ([][]string, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	grid := make([][]string, len(rows))
	for i, r := range rows {
		grid[i] = make([]string, width)
		copy(grid[i], r)
	}

	merges, err := f.GetMergeCells(sheet)
	if err != nil {
		return nil, fmt.Errorf("merge cells: %w", err)
	}
	for _, m := range merges {
		startCol, startRow, err := excelize.CellNameToCoordinates(m.GetStartAxis())
		if err != nil {
			continue
		}
		endCol, endRow, err := excelize.CellNameToCoordinates(m.GetEndAxis())
		if err != nil {
			continue
		}
		value := m.GetCellValue()
		for r := startRow; r <= endRow; r++ {
			for c := startCol; c <= endCol; c++ {
				if r-1 >= len(grid) || c-1 >= width {
					continue
				}
				if r == startRow && c == startCol {
					grid[r-1][c-1] = value
				} else {
					grid[r-1][c-1] = ""
				}
			}
		}
	}
	return grid, nil
}

// gridToMarkdown renders a grid as a Markdown table, first row as header.
func gridToMarkdown(grid [][]string) string {
	var sb strings.Builder
	for i, row := range grid {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = escapePipes(strings.TrimSpace(v))
		}
		sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		if i == 0 {
			sep := make([]string, len(row))
			for j := range sep {
				sep[j] = "---"
			}
			sb.WriteString("| " + strings.Join(sep, " | ") + " |\n")
		}
	}
	return sb.String()
}
