package output

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shivakharbanda/agent-builder/log"
)

// FileWriter writes records to a local file, csv or json.
type FileWriter struct {
	Path   string
	Format string
}

// Write implements Writer.
func (w *FileWriter) Write(ctx context.Context, records []map[string]any) (*Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if dir := filepath.Dir(w.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	switch strings.ToLower(w.Format) {
	case "json":
		if err := w.writeJSON(records); err != nil {
			return nil, err
		}
	case "csv":
		if err := w.writeCSV(records); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported file format %q, supported formats: csv, json", w.Format)
	}

	log.Infof("wrote %d rows to file %s", len(records), w.Path)
	return &Summary{
		Status:      "success",
		OutputType:  "file",
		RowsWritten: len(records),
		Destination: w.Path,
	}, nil
}

func (w *FileWriter) writeJSON(records []map[string]any) error {
	f, err := os.Create(w.Path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to write json output: %w", err)
	}
	return nil
}

func (w *FileWriter) writeCSV(records []map[string]any) error {
	f, err := os.Create(w.Path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if len(records) > 0 {
		columns := columnsOf(records[0])
		if err := cw.Write(columns); err != nil {
			return fmt.Errorf("failed to write csv header: %w", err)
		}
		row := make([]string, len(columns))
		for _, record := range records {
			for i, col := range columns {
				if v := record[col]; v != nil {
					row[i] = fmt.Sprint(v)
				} else {
					row[i] = ""
				}
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write csv row: %w", err)
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv output: %w", err)
	}
	return nil
}
