package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CSVParser parses a people sheet from CSV.
type CSVParser struct{}

// Parse reads CSV from the reader and returns a document holding people.
// Expected columns: first_name, last_name, and optionally id, gender,
// is_living, birth_date, birth_place, death_date, death_place, notes.
func (p *CSVParser) Parse(r io.Reader) (*Document, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	colIndex, err := p.readHeader(reader)
	if err != nil {
		return nil, err
	}

	people, err := p.readRecords(reader, colIndex)
	if err != nil {
		return nil, err
	}
	return &Document{People: people}, nil
}

// readHeader reads and validates the CSV header row.
func (p *CSVParser) readHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}

	requiredCols := []string{"first_name", "last_name"}
	for _, col := range requiredCols {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	return colIndex, nil
}

// readRecords reads all data rows and converts them to RawPersons.
func (p *CSVParser) readRecords(reader *csv.Reader, colIndex map[string]int) ([]RawPerson, error) {
	var people []RawPerson
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		person, err := p.parseRecord(record, colIndex, lineNum)
		if err != nil {
			return nil, err
		}
		people = append(people, person)
	}

	return people, nil
}

// parseRecord converts a CSV record to a RawPerson.
func (p *CSVParser) parseRecord(record []string, colIndex map[string]int, lineNum int) (RawPerson, error) {
	person := RawPerson{
		ID:         getColumn(record, colIndex, "id"),
		FirstName:  getColumn(record, colIndex, "first_name"),
		LastName:   getColumn(record, colIndex, "last_name"),
		Gender:     getColumn(record, colIndex, "gender"),
		BirthDate:  getColumn(record, colIndex, "birth_date"),
		BirthPlace: getColumn(record, colIndex, "birth_place"),
		DeathDate:  getColumn(record, colIndex, "death_date"),
		DeathPlace: getColumn(record, colIndex, "death_place"),
		Notes:      getColumn(record, colIndex, "notes"),
		LineNum:    lineNum,
	}

	livingStr := getColumn(record, colIndex, "is_living")
	if livingStr != "" {
		living, err := strconv.ParseBool(livingStr)
		if err != nil {
			return RawPerson{}, fmt.Errorf("line %d: invalid is_living value %q: %w", lineNum, livingStr, err)
		}
		person.IsLiving = &living
	}

	return person, nil
}

// getColumn safely retrieves a column value from a record.
func getColumn(record []string, colIndex map[string]int, col string) string {
	if idx, ok := colIndex[col]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}
