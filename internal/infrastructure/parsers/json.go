package parsers

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONParser parses a family tree document from JSON.
type JSONParser struct{}

// Parse reads JSON from the reader and returns the parsed document.
func (p *JSONParser) Parse(r io.Reader) (*Document, error) {
	var doc Document

	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	// Set line numbers (array index + 1, 1-indexed)
	for i := range doc.People {
		doc.People[i].LineNum = i + 1
	}
	for i := range doc.Relationships {
		doc.Relationships[i].LineNum = i + 1
	}
	for i := range doc.Events {
		doc.Events[i].LineNum = i + 1
	}
	for i := range doc.Sources {
		doc.Sources[i].LineNum = i + 1
	}

	return &doc, nil
}
