// Package manifest reads workflow step catalogs.
//
// A step catalog is a CSV file that replaces the built-in SDLC step list,
// letting teams reorder, drop, or add phases without rebuilding. Rows are
// ordered by execution sequence.
//
// CSV format:
//
//	id,label,prompt_template,depends_on
//	roadmap,Road Map,"Create a roadmap for: '{prompt}'",
//	code_generation,Code Generation,"Generate a single HTML file for '{prompt}'",
//	code_review,Code Review,"Review this code for '{prompt}': {artifact}",code_generation
//
// The prompt_template and depends_on columns are optional. A row with an empty
// prompt_template and no depends_on describes a manual step.
package manifest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// StepEntry represents a single row in the step catalog CSV.
type StepEntry struct {
	// ID is the step identifier (e.g., "roadmap").
	ID string

	// Label is the display name (e.g., "Road Map").
	Label string

	// PromptTemplate is the generation prompt; may be empty.
	PromptTemplate string

	// DependsOn names an earlier step whose artifact this step consumes.
	DependsOn string
}

// Catalog holds all step entries parsed from a catalog CSV file.
type Catalog struct {
	// Entries are the steps in execution order.
	Entries []StepEntry
}

// ReadFromFile reads and parses a step catalog CSV file.
func ReadFromFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open step catalog: %w", err)
	}
	defer f.Close()

	return readFromReader(f)
}

// ReadFromString parses a step catalog from a CSV string.
// This is useful for testing and for embedding catalog data.
func ReadFromString(data string) (*Catalog, error) {
	return readFromReader(strings.NewReader(data))
}

func readFromReader(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read step catalog header: %w", err)
	}

	colIndex := buildColumnIndex(header)
	if err := validateColumns(colIndex); err != nil {
		return nil, err
	}

	var entries []StepEntry
	seen := make(map[string]bool)
	lineNum := 1 // header was line 1
	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read step catalog line %d: %w", lineNum, err)
		}

		entry := StepEntry{
			ID:             getField(record, colIndex, "id"),
			Label:          getField(record, colIndex, "label"),
			PromptTemplate: getField(record, colIndex, "prompt_template"),
			DependsOn:      getField(record, colIndex, "depends_on"),
		}

		if entry.ID == "" {
			return nil, fmt.Errorf("step catalog line %d: id is required", lineNum)
		}
		if entry.Label == "" {
			return nil, fmt.Errorf("step catalog line %d: label is required", lineNum)
		}
		if seen[entry.ID] {
			return nil, fmt.Errorf("step catalog line %d: duplicate id %q", lineNum, entry.ID)
		}
		seen[entry.ID] = true

		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("step catalog contains no steps")
	}

	return &Catalog{Entries: entries}, nil
}

// requiredColumns are the columns that must be present in the catalog CSV.
var requiredColumns = []string{"id", "label"}

func buildColumnIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(strings.ToLower(col))] = i
	}
	return index
}

func validateColumns(colIndex map[string]int) error {
	for _, col := range requiredColumns {
		if _, ok := colIndex[col]; !ok {
			return fmt.Errorf("step catalog missing required column: %s", col)
		}
	}
	return nil
}

func getField(record []string, colIndex map[string]int, column string) string {
	idx, ok := colIndex[column]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// IDs returns the step ids in execution order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.Entries))
	for i, e := range c.Entries {
		ids[i] = e.ID
	}
	return ids
}

// Get returns the entry with the given id, or nil if not found.
func (c *Catalog) Get(id string) *StepEntry {
	for _, e := range c.Entries {
		if e.ID == id {
			return &e
		}
	}
	return nil
}

// Has returns true if the catalog contains the given step id.
func (c *Catalog) Has(id string) bool {
	return c.Get(id) != nil
}
