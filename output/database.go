package output

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shivakharbanda/agent-builder/dbexec"
	"github.com/shivakharbanda/agent-builder/log"
)

// DatabaseWriter inserts records into a table, all rows in one transaction.
type DatabaseWriter struct {
	Executor *dbexec.Executor
	DBType   string
	Details  map[string]string
	Table    string
}

// Write implements Writer.
func (w *DatabaseWriter) Write(ctx context.Context, records []map[string]any) (*Summary, error) {
	summary := &Summary{
		Status:      "success",
		OutputType:  "database",
		Destination: w.Table,
	}
	if len(records) == 0 {
		return summary, nil
	}

	columns := columnsOf(records[0])
	if len(columns) == 0 {
		return nil, fmt.Errorf("records have no columns to write")
	}

	db, err := w.Executor.Connect(ctx, w.DBType, w.Details)
	if err != nil {
		return nil, fmt.Errorf("failed to connect for output write: %w", err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt := insertStatement(w.DBType, w.Table, columns)
	for _, record := range records {
		args := make([]any, len(columns))
		for i, col := range columns {
			args[i] = record[col]
		}
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("insert into %s failed: %w", w.Table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit writes to %s: %w", w.Table, err)
	}

	summary.RowsWritten = len(records)
	log.Infof("wrote %d rows to table %s", len(records), w.Table)
	return summary, nil
}

// columnsOf returns the record's column names sorted for a deterministic
// insert statement; Go map iteration order is random.
func columnsOf(record map[string]any) []string {
	columns := make([]string, 0, len(record))
	for col := range record {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	return columns
}

// insertStatement builds the INSERT statement with the placeholder style of
// the target database.
func insertStatement(dbType, table string, columns []string) string {
	marks := make([]string, len(columns))
	for i := range columns {
		if isPostgres(dbType) {
			marks[i] = fmt.Sprintf("$%d", i+1)
		} else {
			marks[i] = "?"
		}
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(marks, ", "))
}

func isPostgres(dbType string) bool {
	t := strings.ToLower(dbType)
	return t == "postgres" || t == "postgresql"
}
