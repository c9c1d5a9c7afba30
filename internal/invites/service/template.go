package service

import (
	"bytes"

	"invite_portal_backend/platform/apperr"

	"github.com/xuri/excelize/v2"
)

// TemplateFileName is the download name for the import template.
const TemplateFileName = "invite_template.xlsx"

var templateRows = [][]string{
	{"email", "name", "phone", "role", "organization_name", "position"},
	{"expert@example.com", "김철수", "01012345678", "expert", "", ""},
	{"org@example.com", "이영희", "01098765432", "organization", "한국산업협회", "담당자"},
}

// Template builds the XLSX import template with the expected headers and
// one example row per role.
func (s *Service) Template() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range templateRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to build template", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to build template", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to build template", err)
	}
	return buf.Bytes(), nil
}
