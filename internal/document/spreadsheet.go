package document

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// Sheet 一个工作表：表头加数据行
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]any
}

// RenderSpreadsheet 把若干工作表写成一个 xlsx 文件
func RenderSpreadsheet(sheets ...Sheet) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("at least one sheet is required")
	}

	f := excelize.NewFile()
	defer f.Close()

	keepDefault := false
	for i, sheet := range sheets {
		if sheet.Name == "" {
			return nil, fmt.Errorf("sheet %d has no name", i)
		}
		if sheet.Name == defaultSheet {
			keepDefault = true
		}

		idx, err := f.NewSheet(sheet.Name)
		if err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", sheet.Name, err)
		}
		if i == 0 {
			f.SetActiveSheet(idx)
		}

		if err := writeRow(f, sheet.Name, 1, toCells(sheet.Header)); err != nil {
			return nil, err
		}
		for r, row := range sheet.Rows {
			if err := writeRow(f, sheet.Name, r+2, normalize(row)); err != nil {
				return nil, err
			}
		}
	}

	if !keepDefault {
		if err := f.DeleteSheet(defaultSheet); err != nil {
			return nil, fmt.Errorf("drop default sheet: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write spreadsheet: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
	}
	return nil
}

func toCells(header []string) []any {
	out := make([]any, len(header))
	for i, h := range header {
		out[i] = h
	}
	return out
}

// 金额按数值写入，便于表格内再计算
func normalize(row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		switch x := v.(type) {
		case decimal.Decimal:
			out[i] = x.InexactFloat64()
		case *decimal.Decimal:
			if x != nil {
				out[i] = x.InexactFloat64()
			}
		default:
			out[i] = v
		}
	}
	return out
}
