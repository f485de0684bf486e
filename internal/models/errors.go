package models

import "fmt"

// ValidationError reports a record that arrived from the stats API without
// a fully populated unique key. Such records are rejected at the ingestion
// boundary and never reach storage.
type ValidationError struct {
	Entity string
	Field  string
	Row    int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s record at row %d: missing %s", e.Entity, e.Row, e.Field)
}
