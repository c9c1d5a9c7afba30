package parser

import (
	_ "embed"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed headers.yaml
var headerAliasYAML []byte

// Canonical candidate field names in template column order.
const (
	fieldEmail   = "email"
	fieldName    = "name"
	fieldPhone   = "phone"
	fieldRole    = "role"
	fieldOrgName = "organization_name"
	fieldPos     = "position"
)

// requiredFields must all resolve to a column or parsing aborts.
var requiredFields = []string{fieldEmail, fieldName, fieldPhone, fieldRole}

var headerAliases = mustLoadHeaderAliases()

func mustLoadHeaderAliases() map[string][]string {
	aliases := make(map[string][]string)
	if err := yaml.Unmarshal(headerAliasYAML, &aliases); err != nil {
		panic("parser: invalid embedded header alias table: " + err.Error())
	}
	return aliases
}

// columnIndex maps canonical field names to their column position in the
// header row, or -1 when the column is absent.
type columnIndex map[string]int

// resolveColumns matches the header row against the alias table.
// Header comparison ignores case and surrounding/internal whitespace.
func resolveColumns(header []string) columnIndex {
	cols := columnIndex{}
	for field := range headerAliases {
		cols[field] = -1
	}

	for i, cell := range header {
		normalized := normalizeHeader(cell)
		if normalized == "" {
			continue
		}
		for field, aliases := range headerAliases {
			if cols[field] != -1 {
				continue
			}
			for _, alias := range aliases {
				if normalized == normalizeHeader(alias) {
					cols[field] = i
					break
				}
			}
		}
	}
	return cols
}

// missingRequired returns the required fields with no matching column,
// in canonical order.
func (c columnIndex) missingRequired() []string {
	var missing []string
	for _, field := range requiredFields {
		if c[field] == -1 {
			missing = append(missing, field)
		}
	}
	return missing
}

// cell returns the trimmed value of the given field in a row, or "" when
// the column is absent or the row is short.
func (c columnIndex) cell(row []string, field string) string {
	idx, ok := c[field]
	if !ok || idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func normalizeHeader(value string) string {
	return strings.ToLower(strings.Join(strings.Fields(value), ""))
}
