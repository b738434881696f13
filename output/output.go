// Package output implements the destinations an output node can write to:
// database tables, local files (csv/json) and HTTP APIs. Output nodes are
// terminal; writers report a summary instead of producing data.
package output

import (
	"context"
)

// Summary reports the result of one write.
type Summary struct {
	Status      string `json:"status"`
	OutputType  string `json:"output_type"`
	RowsWritten int    `json:"rows_written"`
	Destination string `json:"destination"`
}

// Writer writes a list of records to a destination.
type Writer interface {
	Write(ctx context.Context, records []map[string]any) (*Summary, error)
}
