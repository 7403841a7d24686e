package excel

import (
	"bytes"

	"github.com/m-mizutani/emailfinder/pkg/domain/model"
	"github.com/m-mizutani/emailfinder/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/xuri/excelize/v2"
)

// outputSheet is the name of the single sheet in encoded workbooks
const outputSheet = "Sheet1"

// Codec reads and writes xlsx workbooks
type Codec struct{}

// NewCodec creates a new Codec
func NewCodec() *Codec {
	return &Codec{}
}

// Decode reads the first worksheet. The first row is the header; data rows are
// padded or truncated to the header width. Fully empty rows are skipped.
func (c *Codec) Decode(data []byte) (*model.Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, goerr.Wrap(types.ErrEmptyWorkbook, "workbook has no sheet")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read rows", goerr.V("sheet", sheets[0]))
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, goerr.Wrap(types.ErrEmptyWorkbook, "sheet is empty", goerr.V("sheet", sheets[0]))
	}

	sheet := &model.Sheet{Header: rows[0]}
	width := len(sheet.Header)

	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		cells := make([]string, width)
		copy(cells, row)
		sheet.Rows = append(sheet.Rows, cells)
	}

	return sheet, nil
}

// Encode writes sheet into a new workbook
func (c *Codec) Encode(sheet *model.Sheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeRow(f, 1, sheet.Header); err != nil {
		return nil, err
	}
	for i, row := range sheet.Rows {
		if err := writeRow(f, i+2, row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to write workbook")
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, rowNum int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return goerr.Wrap(err, "invalid cell coordinates", goerr.V("row", rowNum))
	}

	values := make([]interface{}, len(cells))
	for i, v := range cells {
		values[i] = v
	}

	if err := f.SetSheetRow(outputSheet, cell, &values); err != nil {
		return goerr.Wrap(err, "failed to write row", goerr.V("row", rowNum))
	}
	return nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
