package extract

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// Text returns the whole file body as a single section.
func Text(path string) ([]Section, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read text file failed: %w", err)
	}
	if strings.TrimSpace(string(raw)) == "" {
		return nil, nil
	}
	return []Section{{Text: string(raw), Page: 1}}, nil
}

// CSV renders each data row as "header: value" lines, one section per row,
// so a row retrieves as a self-describing passage.
func CSV(path string) ([]Section, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv failed: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv failed: %w", err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	header := records[0]
	var sections []Section
	for i, row := range records[1:] {
		var b strings.Builder
		for j, cell := range row {
			name := fmt.Sprintf("column_%d", j+1)
			if j < len(header) && strings.TrimSpace(header[j]) != "" {
				name = strings.TrimSpace(header[j])
			}
			b.WriteString(name)
			b.WriteString(": ")
			b.WriteString(strings.TrimSpace(cell))
			b.WriteString("\n")
		}
		if strings.TrimSpace(b.String()) == "" {
			continue
		}
		sections = append(sections, Section{Text: b.String(), Page: i + 1})
	}
	return sections, nil
}
