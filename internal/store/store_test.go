package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "facts.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertRecord(t *testing.T, s *Store, hostname, agentID string, collectedAt time.Time) int64 {
	t.Helper()
	id, _, err := s.Insert(context.Background(), &Record{
		AgentID:     agentID,
		Hostname:    hostname,
		CollectedAt: collectedAt,
		FactsJSON:   `{"processorcount":4}`,
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	return id
}

func TestInsertAndGet(t *testing.T) {
	s := newTestStore(t)
	collected := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	id := insertRecord(t, s, "web01", "agent-1", collected)

	rec, err := s.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Hostname != "web01" {
		t.Errorf("Hostname = %q, want web01", rec.Hostname)
	}
	if rec.AgentID != "agent-1" {
		t.Errorf("AgentID = %q, want agent-1", rec.AgentID)
	}
	if !rec.CollectedAt.Equal(collected) {
		t.Errorf("CollectedAt = %v, want %v", rec.CollectedAt, collected)
	}
	if rec.FactsJSON != `{"processorcount":4}` {
		t.Errorf("FactsJSON = %q", rec.FactsJSON)
	}
	if rec.StoredAt.IsZero() {
		t.Error("StoredAt is zero")
	}
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), 42)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Get(42) err = %v, want sql.ErrNoRows", err)
	}
}

func TestGetLatestByHostname(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	insertRecord(t, s, "web01", "agent-1", base)
	insertRecord(t, s, "web01", "agent-1", base.Add(2*time.Hour))
	insertRecord(t, s, "db01", "agent-2", base.Add(4*time.Hour))

	rec, err := s.GetLatestByHostname(context.Background(), "web01")
	if err != nil {
		t.Fatalf("GetLatestByHostname: %v", err)
	}
	if !rec.CollectedAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("CollectedAt = %v, want %v", rec.CollectedAt, base.Add(2*time.Hour))
	}

	if _, err := s.GetLatestByHostname(context.Background(), "nosuch"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	id := insertRecord(t, s, "web01", "agent-1", time.Now().UTC())

	if err := s.Delete(context.Background(), id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(context.Background(), id); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Get after delete err = %v, want sql.ErrNoRows", err)
	}
	if err := s.Delete(context.Background(), id); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("second Delete err = %v, want sql.ErrNoRows", err)
	}
}

func TestListFilters(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	insertRecord(t, s, "web01", "agent-1", base)
	insertRecord(t, s, "web01", "agent-1", base.Add(1*time.Hour))
	insertRecord(t, s, "db01", "agent-2", base.Add(2*time.Hour))

	records, total, err := s.List(context.Background(), ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 || len(records) != 3 {
		t.Fatalf("total = %d, len = %d, want 3/3", total, len(records))
	}
	// Newest first.
	if records[0].Hostname != "db01" {
		t.Errorf("records[0].Hostname = %q, want db01", records[0].Hostname)
	}
	// List omits the payload.
	if records[0].FactsJSON != "" {
		t.Errorf("FactsJSON = %q, want empty", records[0].FactsJSON)
	}

	records, total, err = s.List(context.Background(), ListFilter{Hostname: "web01"})
	if err != nil {
		t.Fatalf("List(hostname): %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	for _, r := range records {
		if r.Hostname != "web01" {
			t.Errorf("Hostname = %q, want web01", r.Hostname)
		}
	}

	_, total, err = s.List(context.Background(), ListFilter{AgentID: "agent-2"})
	if err != nil {
		t.Fatalf("List(agent): %v", err)
	}
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}

	after := base.Add(30 * time.Minute)
	before := base.Add(90 * time.Minute)
	records, total, err = s.List(context.Background(), ListFilter{CollectedAfter: &after, CollectedBefore: &before})
	if err != nil {
		t.Fatalf("List(range): %v", err)
	}
	if total != 1 || !records[0].CollectedAt.Equal(base.Add(1*time.Hour)) {
		t.Errorf("range filter matched %d records", total)
	}
}

func TestListPagination(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		insertRecord(t, s, "web01", "agent-1", base.Add(time.Duration(i)*time.Hour))
	}

	records, total, err := s.List(context.Background(), ListFilter{PageSize: 2, Page: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(records) != 2 {
		t.Fatalf("len = %d, want 2", len(records))
	}
	// Page 2 of newest-first: offsets 2 and 3.
	if !records[0].CollectedAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("records[0].CollectedAt = %v", records[0].CollectedAt)
	}
}

func TestPurge(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()

	insertRecord(t, s, "old01", "agent-1", now.Add(-72*time.Hour))
	insertRecord(t, s, "old02", "agent-1", now.Add(-48*time.Hour))
	keepID := insertRecord(t, s, "new01", "agent-2", now.Add(-time.Hour))

	n, err := s.Purge(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if n != 2 {
		t.Errorf("purged %d records, want 2", n)
	}
	if _, err := s.Get(context.Background(), keepID); err != nil {
		t.Errorf("recent record purged: %v", err)
	}
}
