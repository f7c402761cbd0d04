package supabase

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrStaleVersion means a feedback mutation raced another writer: the
	// caller's observed version no longer matches the row.
	ErrStaleVersion = errors.New("stale feedback version")
	// ErrComparisonExists means a pending comparison is already in flight
	// for the target.
	ErrComparisonExists = errors.New("pending comparison already exists for target")
)

type DatabaseClient struct {
	db *sql.DB
}

// execer is satisfied by both *sql.DB and *sql.Tx, so queries can run
// standalone or inside a transition transaction.
type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

// Begin starts a transaction. Every multi-step status transition runs inside
// one, so a persistence failure aborts the whole transition.
func (d *DatabaseClient) Begin() (*sql.Tx, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
