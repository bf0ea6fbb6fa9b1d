// Package store persists fact reports in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Record is a stored fact report row. FactsJSON holds the serialized
// fact collection; list queries leave it empty.
type Record struct {
	ID          int64
	AgentID     string
	Hostname    string
	CollectedAt time.Time
	StoredAt    time.Time
	FactsJSON   string
}

// ListFilter holds optional query parameters for listing reports.
type ListFilter struct {
	Hostname        string
	AgentID         string
	CollectedAfter  *time.Time
	CollectedBefore *time.Time
	PageSize        int
	Page            int
}

// Store provides CRUD operations for fact report records.
type Store struct {
	db *sql.DB
}

// New opens the SQLite database at path and runs migrations.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

const recordColumns = "id, agent_id, hostname, collected_at, stored_at, facts_json"

// Insert stores a report record and returns the new ID and stored_at time.
func (s *Store) Insert(ctx context.Context, rec *Record) (int64, time.Time, error) {
	storedAt := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (agent_id, hostname, collected_at, stored_at, facts_json)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.AgentID,
		rec.Hostname,
		rec.CollectedAt.UTC().Format(time.RFC3339),
		storedAt.Format(time.RFC3339),
		rec.FactsJSON,
	)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("insert report: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("get last insert id: %w", err)
	}

	return id, storedAt, nil
}

// Get retrieves a report record by ID.
func (s *Store) Get(ctx context.Context, id int64) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM reports WHERE id = ?`, id)
	return scanRecord(row)
}

// GetLatestByHostname retrieves the most recent report for a hostname.
func (s *Store) GetLatestByHostname(ctx context.Context, hostname string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM reports
		 WHERE hostname = ? ORDER BY collected_at DESC LIMIT 1`, hostname)
	return scanRecord(row)
}

// Delete removes a report record by ID.
func (s *Store) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// List returns report summaries matching the given filter, newest
// first, plus the total match count.
func (s *Store) List(ctx context.Context, f ListFilter) ([]Record, int, error) {
	where, args := buildWhere(f)

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reports"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reports: %w", err)
	}

	pageSize := f.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize

	query := `SELECT id, agent_id, hostname, collected_at, stored_at, ''
		FROM reports` + where + ` ORDER BY collected_at DESC LIMIT ? OFFSET ?`
	args = append(args, pageSize, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, *rec)
	}

	return records, total, rows.Err()
}

// Purge deletes report records older than the given duration and
// returns the number removed.
func (s *Store) Purge(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	result, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE collected_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge reports: %w", err)
	}
	return result.RowsAffected()
}

func buildWhere(f ListFilter) (string, []any) {
	var conditions []string
	var args []any

	if f.Hostname != "" {
		conditions = append(conditions, "hostname = ?")
		args = append(args, f.Hostname)
	}
	if f.AgentID != "" {
		conditions = append(conditions, "agent_id = ?")
		args = append(args, f.AgentID)
	}
	if f.CollectedAfter != nil {
		conditions = append(conditions, "collected_at >= ?")
		args = append(args, f.CollectedAfter.UTC().Format(time.RFC3339))
	}
	if f.CollectedBefore != nil {
		conditions = append(conditions, "collected_at <= ?")
		args = append(args, f.CollectedBefore.UTC().Format(time.RFC3339))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var rec Record
	var collectedAt, storedAt string
	err := row.Scan(&rec.ID, &rec.AgentID, &rec.Hostname, &collectedAt, &storedAt, &rec.FactsJSON)
	if err != nil {
		return nil, err
	}

	rec.CollectedAt, _ = time.Parse(time.RFC3339, collectedAt)
	rec.StoredAt, _ = time.Parse(time.RFC3339, storedAt)

	return &rec, nil
}
