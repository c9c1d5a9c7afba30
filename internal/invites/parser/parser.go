// Package parser reads uploaded candidate spreadsheets (XLSX, XLS, CSV)
// and converts their rows into invite candidates. Only the first sheet of a
// workbook is read; a header row is expected in row 1.
package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"invite_portal_backend/internal/invites/collector"
	"invite_portal_backend/internal/invites/rowcheck"
	"invite_portal_backend/platform/apperr"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// headerRowOffset converts a 0-indexed data row position into the
// 1-indexed sheet row users see (row 1 is the header).
const headerRowOffset = 2

const maxXLSRows = 65536

// Result carries the surviving candidates (tagged with their sheet row)
// and the user-facing messages for every rejected row. A batch can be
// partially valid: valid rows are surfaced even when others failed.
type Result struct {
	Rows   []collector.Row
	Errors []string
}

// Parser converts uploaded spreadsheet bytes into candidate rows.
type Parser struct {
	maxBytes int64
}

// New creates a parser enforcing the given upload size ceiling.
func New(maxBytes int64) *Parser {
	return &Parser{maxBytes: maxBytes}
}

// CheckSize rejects payloads over the upload ceiling. Handlers call this
// with the declared upload size before buffering the body.
func (p *Parser) CheckSize(size int64) error {
	if size > p.maxBytes {
		return apperr.TooLarge(fmt.Sprintf("파일 크기는 %dMB를 초과할 수 없습니다", p.maxBytes/(1024*1024)))
	}
	return nil
}

// Parse validates the file envelope (extension, size), extracts the first
// sheet, resolves headers, and runs every data row through the row
// validator. Rows blank in both the email and name columns are dropped
// silently. Format-level problems (unsupported extension, oversized file,
// missing required columns, empty sheet) abort with a typed error; row-level
// problems are collected in Result.Errors.
func (p *Parser) Parse(filename string, data []byte) (*Result, error) {
	if err := p.CheckSize(int64(len(data))); err != nil {
		return nil, err
	}

	rows, err := readRows(filename, data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperr.Validation("빈 파일입니다")
	}

	cols := resolveColumns(rows[0])
	if missing := cols.missingRequired(); len(missing) > 0 {
		return nil, apperr.Validation(
			fmt.Sprintf("필수 컬럼이 없습니다: %s", strings.Join(missing, ", ")),
		).WithDetails(missing)
	}

	result := &Result{}
	for i, row := range rows[1:] {
		rowNumber := i + headerRowOffset

		email := cols.cell(row, fieldEmail)
		name := cols.cell(row, fieldName)
		if email == "" && name == "" {
			// blank separator row
			continue
		}

		candidate := rowcheck.Candidate{
			Email:            email,
			Name:             name,
			Phone:            cols.cell(row, fieldPhone),
			Role:             string(rowcheck.CoerceRole(cols.cell(row, fieldRole))),
			OrganizationName: cols.cell(row, fieldOrgName),
			Position:         cols.cell(row, fieldPos),
		}

		check := rowcheck.Validate(candidate, rowNumber)
		if !check.Valid {
			for _, rowErr := range check.Errors {
				result.Errors = append(result.Errors, rowErr.String())
			}
			continue
		}

		result.Rows = append(result.Rows, collector.Row{
			Number:    rowNumber,
			Candidate: rowcheck.Normalize(candidate),
		})
	}

	return result, nil
}

func readRows(filename string, data []byte) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return readCSV(data)
	case ".xlsx":
		return readXLSX(data)
	case ".xls":
		return readXLS(data)
	default:
		return nil, apperr.Unsupported("지원하지 않는 파일 형식입니다 (.xlsx, .xls, .csv)")
	}
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperr.Wrap(apperr.KindValidation, "CSV 파일을 읽을 수 없습니다", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func readXLSX(data []byte) ([][]string, error) {
	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "엑셀 파일을 읽을 수 없습니다", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperr.Validation("빈 파일입니다")
	}

	// first sheet only; any later sheets are ignored
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "엑셀 파일을 읽을 수 없습니다", err)
	}
	return rows, nil
}

func readXLS(data []byte) ([][]string, error) {
	book, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil || book == nil {
		return nil, apperr.Wrap(apperr.KindValidation, "엑셀 파일을 읽을 수 없습니다", err)
	}

	sheet := book.GetSheet(0)
	if sheet == nil {
		return nil, apperr.Validation("빈 파일입니다")
	}

	var rows [][]string
	for rowIdx := 0; rowIdx <= int(sheet.MaxRow) && rowIdx < maxXLSRows; rowIdx++ {
		row := sheet.Row(rowIdx)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for colIdx := 0; colIdx < row.LastCol(); colIdx++ {
			cells = append(cells, row.Col(colIdx))
		}
		rows = append(rows, cells)
	}
	return rows, nil
}
