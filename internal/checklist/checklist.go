// Package checklist loads CRO checklist tables and classifies each row by
// how it maps to the automated checks.
package checklist

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/joescharf/cro/internal/models"
)

//go:embed default.yaml
var defaultChecklist []byte

// Column keys after header aliasing.
const (
	colCategory    = "category"
	colTip         = "tip"
	colPriority    = "priority"
	colDifficulty  = "difficulty"
	colExplanation = "explanation"
	colCheckType   = "check_type"
)

// headerAliases maps lower-cased source headers (Dutch or English) to column keys.
var headerAliases = map[string]string{
	"categorie":          colCategory,
	"category":           colCategory,
	"tip":                colTip,
	"prioriteit":         colPriority,
	"priority":           colPriority,
	"moeilijkheidsgraad": colDifficulty,
	"difficulty":         colDifficulty,
	"uitleg":             colExplanation,
	"explanation":        colExplanation,
	"check type":         colCheckType,
	"check_type":         colCheckType,
	"checktype":          colCheckType,
}

// Checklist is an ordered set of checklist items. HasPriority records
// whether the source table carried a priority column at all.
type Checklist struct {
	Items       []models.ChecklistItem `json:"items"`
	HasPriority bool                   `json:"has_priority"`
}

// Len returns the number of items.
func (c *Checklist) Len() int {
	return len(c.Items)
}

// Clone returns a copy whose item slice can be reordered independently.
func (c *Checklist) Clone() *Checklist {
	items := make([]models.ChecklistItem, len(c.Items))
	copy(items, c.Items)
	return &Checklist{Items: items, HasPriority: c.HasPriority}
}

// Default returns the embedded checklist.
func Default() (*Checklist, error) {
	cl, err := ParseYAML(bytes.NewReader(defaultChecklist))
	if err != nil {
		return nil, fmt.Errorf("default checklist: %w", err)
	}
	return cl, nil
}

// Load reads a checklist file. The format follows the extension:
// .xlsx, .csv, .yaml or .yml. An empty path loads the default checklist.
func Load(path string) (*Checklist, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open checklist: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx":
		return ParseXLSX(f)
	case ".csv":
		return ParseCSV(f)
	case ".yaml", ".yml":
		return ParseYAML(f)
	default:
		return nil, fmt.Errorf("unsupported checklist format: %s (use .xlsx, .csv, .yaml)", ext)
	}
}

// ParseXLSX reads the first sheet of a workbook. The first row is the header.
func ParseXLSX(r io.Reader) (*Checklist, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return FromRows(rows)
}

// ParseCSV reads a comma separated table. The first record is the header.
func ParseCSV(r io.Reader) (*Checklist, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return FromRows(rows)
}

// ParseYAML reads a list of mappings keyed by column header.
func ParseYAML(r io.Reader) (*Checklist, error) {
	var records []map[string]string
	if err := yaml.NewDecoder(r).Decode(&records); err != nil {
		if err == io.EOF {
			return &Checklist{}, nil
		}
		return nil, fmt.Errorf("decode yaml checklist: %w", err)
	}

	var header []string
	seen := make(map[string]bool)
	for _, rec := range records {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				header = append(header, k)
			}
		}
	}

	rows := [][]string{header}
	for _, rec := range records {
		row := make([]string, len(header))
		for i, k := range header {
			row[i] = rec[k]
		}
		rows = append(rows, row)
	}
	return FromRows(rows)
}

// FromRows builds a checklist from a header row followed by data rows.
// Unknown columns are ignored, missing ones default to "", and rows with
// every cell blank are skipped.
func FromRows(rows [][]string) (*Checklist, error) {
	cl := &Checklist{}
	if len(rows) == 0 {
		return cl, nil
	}

	index := make(map[string]int)
	for i, h := range rows[0] {
		key, ok := headerAliases[strings.ToLower(strings.TrimSpace(h))]
		if !ok {
			continue
		}
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	_, cl.HasPriority = index[colPriority]

	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		cell := func(key string) string {
			i, ok := index[key]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		cl.Items = append(cl.Items, NewItem(
			cell(colCategory),
			cell(colTip),
			cell(colPriority),
			cell(colDifficulty),
			cell(colExplanation),
			cell(colCheckType),
		))
	}
	return cl, nil
}

// NewItem applies the ingestion defaults to one row. An explicit check type
// wins over the label lookup.
func NewItem(category, tip, priority, difficulty, explanation, checkType string) models.ChecklistItem {
	item := models.ChecklistItem{
		Category:    category,
		Tip:         tip,
		TipNorm:     NormalizeTip(tip),
		Priority:    priority,
		Difficulty:  difficulty,
		Explanation: explanation,
	}
	if strings.TrimSpace(checkType) != "" {
		item.CheckType, _ = ParseCheckType(checkType)
	} else {
		item.CheckType = TypeForTip(item.TipNorm)
	}
	return item
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
