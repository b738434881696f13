package dbexec

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/ClickHouse/clickhouse-go/v2"
	gomysql "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver "pgx"
)

// detail returns the first non-empty value among the given keys.
func detail(details map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := details[k]; v != "" {
			return v
		}
	}
	return ""
}

func connectMySQL(ctx context.Context, details map[string]string) (*sql.DB, error) {
	cfg := gomysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%s",
		detail(details, "host"),
		firstNonEmpty(detail(details, "port"), "3306"))
	cfg.User = detail(details, "user", "username")
	cfg.Passwd = detail(details, "password")
	cfg.DBName = detail(details, "database", "dbname")
	cfg.ParseTime = true

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func connectPostgres(ctx context.Context, details map[string]string) (*sql.DB, error) {
	dsn := url.URL{
		Scheme: "postgres",
		User: url.UserPassword(
			detail(details, "user", "username"),
			detail(details, "password")),
		Host: fmt.Sprintf("%s:%s",
			detail(details, "host"),
			firstNonEmpty(detail(details, "port"), "5432")),
		Path: "/" + detail(details, "database", "dbname"),
	}
	query := url.Values{}
	if sslmode := detail(details, "sslmode"); sslmode != "" {
		query.Set("sslmode", sslmode)
	}
	dsn.RawQuery = query.Encode()

	db, err := sql.Open("pgx", dsn.String())
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func connectClickHouse(ctx context.Context, details map[string]string) (*sql.DB, error) {
	addr := fmt.Sprintf("%s:%s",
		detail(details, "host"),
		firstNonEmpty(detail(details, "port"), "9000"))

	db := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: detail(details, "database", "dbname"),
			Username: firstNonEmpty(detail(details, "user", "username"), "default"),
			Password: detail(details, "password"),
		},
	})
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// connectSQLite expects a database/sql driver named "sqlite" to have been
// registered by the embedding application; the engine itself stays cgo-free.
func connectSQLite(ctx context.Context, details map[string]string) (*sql.DB, error) {
	path := detail(details, "path", "file", "database")
	if path == "" {
		return nil, fmt.Errorf("sqlite connection details require a path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
