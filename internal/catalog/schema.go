package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON []byte

var schemaLoader = gojsonschema.NewBytesLoader(schemaJSON)

// ValidationError lists schema violations in a catalog document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "catalog: invalid document: " + strings.Join(e.Problems, "; ")
}

// Validate checks data against the catalog schema.
func Validate(data []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("catalog: parse document: %w", err)
	}
	if result.Valid() {
		return nil
	}
	ve := &ValidationError{}
	for _, e := range result.Errors() {
		ve.Problems = append(ve.Problems, e.String())
	}
	return ve
}

// Parse validates and decodes a catalog document. Duplicate ids are rejected.
func Parse(data []byte) ([]Item, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	seen := make(map[ID]struct{}, len(items))
	for _, it := range items {
		if _, dup := seen[it.ID]; dup {
			return nil, errors.New("catalog: duplicate id " + string(it.ID))
		}
		seen[it.ID] = struct{}{}
	}
	return items, nil
}
