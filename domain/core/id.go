package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// RowKey identifies one spreadsheet row independently of the row's own "Nº"
// value, which may be blank or repeated.
type RowKey string

// NewRowKey builds the key for a 1-based spreadsheet row number
func NewRowKey(sheetRow int) RowKey {
	return RowKey(fmt.Sprintf("row-%d", sheetRow))
}

func (k RowKey) String() string { return string(k) }

// ParseRowKey validates a key received from a request path
func ParseRowKey(s string) (RowKey, error) {
	s = strings.TrimSpace(s)
	var n int
	if _, err := fmt.Sscanf(s, "row-%d", &n); err != nil || n <= 0 {
		return "", NewValidationError("row key", fmt.Sprintf("malformed key %q", s))
	}
	if string(NewRowKey(n)) != s {
		return "", NewValidationError("row key", fmt.Sprintf("malformed key %q", s))
	}
	return RowKey(s), nil
}
