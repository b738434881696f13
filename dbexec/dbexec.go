// Package dbexec provides framework-agnostic database query execution for
// workflow nodes: a driver registry keyed by database type, literal
// {{placeholder}} substitution, and row retrieval preserving driver column
// order.
package dbexec

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shivakharbanda/agent-builder/log"
)

// Record is one result row keyed by column name. Column order is carried
// separately in QueryResult.Columns because Go maps are unordered.
type Record = map[string]any

// QueryResult is an ordered sequence of records plus the column order
// reported by the driver.
type QueryResult struct {
	Columns []string `json:"columns"`
	Rows    []Record `json:"rows"`
}

// ConnectFunc opens a database handle from credential connection details.
type ConnectFunc func(ctx context.Context, details map[string]string) (*sql.DB, error)

// UnsupportedTypeError is returned when no driver is registered for the
// requested database type.
type UnsupportedTypeError struct {
	DBType    string
	Supported []string
}

// Error implements the error interface.
func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported database type %q, supported types: %s",
		e.DBType, strings.Join(e.Supported, ", "))
}

// Executor executes queries against registered database drivers.
type Executor struct {
	mu      sync.RWMutex
	drivers map[string]ConnectFunc
}

// New creates an Executor with the built-in drivers registered: mysql,
// postgres, clickhouse and sqlite.
func New() *Executor {
	e := &Executor{drivers: make(map[string]ConnectFunc)}
	e.RegisterDriver("mysql", connectMySQL)
	e.RegisterDriver("postgres", connectPostgres)
	e.RegisterDriver("postgresql", connectPostgres)
	e.RegisterDriver("clickhouse", connectClickHouse)
	e.RegisterDriver("sqlite", connectSQLite)
	return e
}

// RegisterDriver registers or replaces the connect function for a database
// type. Type names are matched case-insensitively.
func (e *Executor) RegisterDriver(dbType string, connect ConnectFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.drivers[strings.ToLower(dbType)] = connect
}

// SupportedTypes returns the registered database type names, sorted.
func (e *Executor) SupportedTypes() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	types := make([]string, 0, len(e.drivers))
	for t := range e.drivers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func (e *Executor) connector(dbType string) (ConnectFunc, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	connect, ok := e.drivers[strings.ToLower(dbType)]
	if !ok {
		types := make([]string, 0, len(e.drivers))
		for t := range e.drivers {
			types = append(types, t)
		}
		sort.Strings(types)
		return nil, &UnsupportedTypeError{DBType: dbType, Supported: types}
	}
	return connect, nil
}

// Connect opens a database handle for the normalized database type. Used by
// callers that need write access, such as the output sink; callers own the
// returned handle and must close it.
func (e *Executor) Connect(ctx context.Context, dbType string, details map[string]string) (*sql.DB, error) {
	connect, err := e.connector(dbType)
	if err != nil {
		return nil, err
	}
	return connect(ctx, details)
}

// ExecuteQuery substitutes placeholders into the query, opens a connection
// for the normalized database type and returns the result rows. The
// substitution is a pure text replacement, not parameter binding; callers
// are responsible for safe placeholder values. The connection is opened per
// execution and closed before returning.
func (e *Executor) ExecuteQuery(
	ctx context.Context,
	dbType string,
	details map[string]string,
	query string,
	placeholders map[string]any,
) (*QueryResult, error) {
	connect, err := e.connector(dbType)
	if err != nil {
		return nil, err
	}

	final := ReplacePlaceholders(query, placeholders)

	db, err := connect(ctx, details)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", strings.ToLower(dbType), err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Warnf("failed to close %s connection: %v", strings.ToLower(dbType), cerr)
		}
	}()

	rows, err := db.QueryContext(ctx, final)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	defer rows.Close()

	return collectRows(rows)
}

// collectRows scans all rows into records keyed by the driver's column
// names, in column order.
func collectRows(rows *sql.Rows) (*QueryResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	result := &QueryResult{Columns: columns, Rows: []Record{}}
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		record := make(Record, len(columns))
		for i, col := range columns {
			record[col] = normalizeValue(values[i])
		}
		result.Rows = append(result.Rows, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return result, nil
}

// normalizeValue converts driver byte slices to strings so records are JSON
// friendly.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
