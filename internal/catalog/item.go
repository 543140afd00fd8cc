package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// CategoryAll matches every category in Filtered.
const CategoryAll = "all"

// ID identifies an item. The catalog document may carry ids as JSON numbers
// or strings; both decode to the same textual form.
type ID string

// UnmarshalJSON accepts a JSON string or an integer.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("catalog: id must be a string or number: %w", err)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("catalog: id %s is not an integer", n)
	}
	*id = ID(n.String())
	return nil
}

// Item is one catalog entry.
type Item struct {
	ID          ID      `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Path        string  `json:"path"`
	Logo        string  `json:"logo"`
	Featured    bool    `json:"featured"`
	Rating      float64 `json:"rating"`
	Description string  `json:"description,omitempty"`
}

// UnmarshalJSON also reads the misspelled "discription" key that older
// catalog documents use.
func (it *Item) UnmarshalJSON(data []byte) error {
	type plain Item
	var aux struct {
		plain
		Legacy string `json:"discription"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*it = Item(aux.plain)
	if it.Description == "" {
		it.Description = aux.Legacy
	}
	return nil
}

// Summary returns the description, or a generated one when the item has none.
func (it Item) Summary() string {
	if strings.TrimSpace(it.Description) != "" {
		return it.Description
	}
	return fmt.Sprintf("Experience the excitement of %s. One of our most popular %s games!", it.Name, it.Category)
}

// IDSet is a set of item ids.
type IDSet map[ID]struct{}

// NewIDSet builds a set from ids.
func NewIDSet(ids ...ID) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Has reports membership. A nil set has no members.
func (s IDSet) Has(id ID) bool {
	_, ok := s[id]
	return ok
}
