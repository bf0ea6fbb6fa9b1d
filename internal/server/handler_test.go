package server

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	kerrors "github.com/go-kratos/kratos/v2/errors"

	"github.com/go-tangra/go-tangra-facts/internal/api"
	"github.com/go-tangra/go-tangra-facts/internal/facts"
	"github.com/go-tangra/go-tangra-facts/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "facts.db"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return NewService(st, NewCommandQueue(), 25*time.Second)
}

func testReport(hostname string) *api.Report {
	c := facts.NewCollection()
	processors := facts.NewMap()
	processors.Add("count", facts.Int(4))
	c.Add("processors", processors)
	c.Add("processorcount", facts.Int(4))

	return &api.Report{
		AgentID:     "agent-1",
		Hostname:    hostname,
		Version:     "1.0",
		CollectedAt: time.Now().UTC(),
		Facts:       c,
	}
}

func submit(t *testing.T, s *Service, hostname string) int64 {
	t.Helper()
	resp, err := s.SubmitReport(context.Background(), &api.SubmitReportRequest{Report: testReport(hostname)})
	if err != nil {
		t.Fatalf("SubmitReport: %v", err)
	}
	return resp.ID
}

func TestSubmitAndGetReport(t *testing.T) {
	s := newTestService(t)
	id := submit(t, s, "web01")

	got, err := s.GetReport(context.Background(), id)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if got.Report.Hostname != "web01" {
		t.Errorf("Hostname = %q, want web01", got.Report.Hostname)
	}
	if got.Report.Facts == nil || got.Report.Facts.Get("processorcount") == nil {
		t.Error("facts lost through store")
	}
	if got.StoredAt.IsZero() {
		t.Error("StoredAt is zero")
	}
}

func TestSubmitReportValidation(t *testing.T) {
	s := newTestService(t)

	_, err := s.SubmitReport(context.Background(), &api.SubmitReportRequest{})
	if kerrors.Code(err) != 400 {
		t.Errorf("missing report: code = %d, want 400", kerrors.Code(err))
	}

	r := testReport("")
	_, err = s.SubmitReport(context.Background(), &api.SubmitReportRequest{Report: r})
	if kerrors.Code(err) != 400 {
		t.Errorf("missing hostname: code = %d, want 400", kerrors.Code(err))
	}
}

func TestGetReportNotFound(t *testing.T) {
	s := newTestService(t)

	_, err := s.GetReport(context.Background(), 99)
	if kerrors.Code(err) != 404 {
		t.Errorf("code = %d, want 404", kerrors.Code(err))
	}
}

func TestListReports(t *testing.T) {
	s := newTestService(t)
	submit(t, s, "web01")
	submit(t, s, "web01")
	submit(t, s, "db01")

	resp, err := s.ListReports(context.Background(), store.ListFilter{Hostname: "web01"})
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if resp.TotalCount != 2 || len(resp.Reports) != 2 {
		t.Errorf("TotalCount = %d, len = %d, want 2/2", resp.TotalCount, len(resp.Reports))
	}
}

func TestDeleteReport(t *testing.T) {
	s := newTestService(t)
	id := submit(t, s, "web01")

	if err := s.DeleteReport(context.Background(), id); err != nil {
		t.Fatalf("DeleteReport: %v", err)
	}
	if err := s.DeleteReport(context.Background(), id); kerrors.Code(err) != 404 {
		t.Errorf("second delete: code = %d, want 404", kerrors.Code(err))
	}
}

func TestLatestReport(t *testing.T) {
	s := newTestService(t)

	first := testReport("web01")
	first.CollectedAt = time.Now().UTC().Add(-2 * time.Hour)
	if _, err := s.SubmitReport(context.Background(), &api.SubmitReportRequest{Report: first}); err != nil {
		t.Fatalf("SubmitReport: %v", err)
	}
	latestID := submit(t, s, "web01")

	got, err := s.LatestReport(context.Background(), "web01")
	if err != nil {
		t.Fatalf("LatestReport: %v", err)
	}
	if got.ID != latestID {
		t.Errorf("ID = %d, want %d", got.ID, latestID)
	}

	_, err = s.LatestReport(context.Background(), "nosuch")
	if kerrors.Code(err) != 404 {
		t.Errorf("unknown host: code = %d, want 404", kerrors.Code(err))
	}
}

func TestRefreshHostNotConnected(t *testing.T) {
	s := newTestService(t)

	_, err := s.RefreshHost(context.Background(), "web01")
	if kerrors.Code(err) != 404 {
		t.Errorf("code = %d, want 404", kerrors.Code(err))
	}
}

func TestRefreshHostDelivers(t *testing.T) {
	s := newTestService(t)

	// Agent registers by polling once.
	if _, err := s.PollCommands(context.Background(), "web01", "agent-1", "1.0", time.Millisecond); err != nil {
		t.Fatalf("PollCommands: %v", err)
	}

	resp, err := s.RefreshHost(context.Background(), "web01")
	if err != nil {
		t.Fatalf("RefreshHost: %v", err)
	}
	if !resp.Sent || resp.CommandID == "" {
		t.Errorf("resp = %+v", resp)
	}

	poll, err := s.PollCommands(context.Background(), "web01", "agent-1", "1.0", time.Millisecond)
	if err != nil {
		t.Fatalf("PollCommands: %v", err)
	}
	if len(poll.Commands) != 1 || poll.Commands[0].Type != api.CommandTypeRefresh {
		t.Errorf("commands = %v", poll.Commands)
	}
	if poll.Commands[0].ID != resp.CommandID {
		t.Errorf("command ID = %q, want %q", poll.Commands[0].ID, resp.CommandID)
	}
}

func TestPollCommandsRequiresHostname(t *testing.T) {
	s := newTestService(t)

	_, err := s.PollCommands(context.Background(), "", "agent-1", "1.0", 0)
	if kerrors.Code(err) != 400 {
		t.Errorf("code = %d, want 400", kerrors.Code(err))
	}
}

func TestPollCommandsWaitClamped(t *testing.T) {
	s := newTestService(t)
	s.commandWait = 10 * time.Millisecond

	start := time.Now()
	if _, err := s.PollCommands(context.Background(), "web01", "agent-1", "1.0", time.Hour); err != nil {
		t.Fatalf("PollCommands: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("wait not clamped, poll took %s", elapsed)
	}
}

func TestListAgents(t *testing.T) {
	s := newTestService(t)

	resp, err := s.ListAgents(context.Background())
	if err != nil {
		t.Fatalf("ListAgents: %v", err)
	}
	if len(resp.Agents) != 0 {
		t.Errorf("agents = %v, want empty", resp.Agents)
	}

	if _, err := s.PollCommands(context.Background(), "web01", "agent-1", "1.0", time.Millisecond); err != nil {
		t.Fatalf("PollCommands: %v", err)
	}

	resp, err = s.ListAgents(context.Background())
	if err != nil {
		t.Fatalf("ListAgents: %v", err)
	}
	if len(resp.Agents) != 1 || resp.Agents[0].Hostname != "web01" {
		t.Errorf("agents = %v", resp.Agents)
	}
}
