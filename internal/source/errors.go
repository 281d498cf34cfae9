package source

import (
	"fmt"
	"strings"
)

// MissingColumnsError is returned when a CSV lacks columns the parser requires
type MissingColumnsError struct {
	Source  string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: missing required columns: %s", e.Source, strings.Join(e.Columns, ", "))
}
