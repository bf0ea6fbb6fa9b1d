package server

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	khttp "github.com/go-kratos/kratos/v2/transport/http"

	"github.com/go-tangra/go-tangra-facts/internal/api"
	"github.com/go-tangra/go-tangra-facts/internal/convert"
	"github.com/go-tangra/go-tangra-facts/internal/store"
)

// Service implements the collector's HTTP API backed by the store.
type Service struct {
	store       *store.Store
	cmdQueue    *CommandQueue
	commandWait time.Duration
}

// NewService creates a Service backed by the given store and queue.
func NewService(s *store.Store, q *CommandQueue, commandWait time.Duration) *Service {
	return &Service{store: s, cmdQueue: q, commandWait: commandWait}
}

// RegisterRoutes attaches the API routes to the HTTP server.
func (s *Service) RegisterRoutes(srv *khttp.Server) {
	r := srv.Route("/v1")
	r.POST("/reports", s.submitReportRoute)
	r.GET("/reports", s.listReportsRoute)
	r.GET("/reports/{id}", s.getReportRoute)
	r.DELETE("/reports/{id}", s.deleteReportRoute)
	r.GET("/hosts/{hostname}/latest", s.latestReportRoute)
	r.POST("/hosts/{hostname}/refresh", s.refreshHostRoute)
	r.GET("/commands", s.pollCommandsRoute)
	r.GET("/agents", s.listAgentsRoute)
}

// SubmitReport stores a fact report and returns its record ID.
func (s *Service) SubmitReport(ctx context.Context, req *api.SubmitReportRequest) (*api.SubmitReportResponse, error) {
	if req.Report == nil {
		return nil, kerrors.BadRequest("MISSING_REPORT", "report is required")
	}
	if req.Report.Hostname == "" {
		return nil, kerrors.BadRequest("MISSING_HOSTNAME", "hostname is required")
	}

	rec, err := convert.ReportToRecord(req.Report)
	if err != nil {
		return nil, kerrors.InternalServer("CONVERT_FAILED", err.Error())
	}

	id, storedAt, err := s.store.Insert(ctx, rec)
	if err != nil {
		return nil, kerrors.InternalServer("STORE_FAILED", err.Error())
	}

	return &api.SubmitReportResponse{ID: id, StoredAt: storedAt}, nil
}

// GetReport fetches one stored report by ID.
func (s *Service) GetReport(ctx context.Context, id int64) (*api.GetReportResponse, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, kerrors.NotFound("REPORT_NOT_FOUND", "report not found")
		}
		return nil, kerrors.InternalServer("STORE_FAILED", err.Error())
	}

	report, err := convert.RecordToReport(rec)
	if err != nil {
		return nil, kerrors.InternalServer("DECODE_FAILED", err.Error())
	}

	return &api.GetReportResponse{ID: rec.ID, Report: report, StoredAt: rec.StoredAt}, nil
}

// ListReports returns report summaries matching the filter.
func (s *Service) ListReports(ctx context.Context, filter store.ListFilter) (*api.ListReportsResponse, error) {
	records, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, kerrors.InternalServer("STORE_FAILED", err.Error())
	}

	summaries := make([]api.ReportSummary, len(records))
	for i := range records {
		summaries[i] = convert.RecordToSummary(&records[i])
	}

	return &api.ListReportsResponse{Reports: summaries, TotalCount: total}, nil
}

// DeleteReport removes one stored report by ID.
func (s *Service) DeleteReport(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return kerrors.NotFound("REPORT_NOT_FOUND", "report not found")
		}
		return kerrors.InternalServer("STORE_FAILED", err.Error())
	}
	return nil
}

// LatestReport fetches the most recent report for a hostname.
func (s *Service) LatestReport(ctx context.Context, hostname string) (*api.GetReportResponse, error) {
	if hostname == "" {
		return nil, kerrors.BadRequest("MISSING_HOSTNAME", "hostname is required")
	}

	rec, err := s.store.GetLatestByHostname(ctx, hostname)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, kerrors.NotFound("REPORT_NOT_FOUND", "no report found for hostname")
		}
		return nil, kerrors.InternalServer("STORE_FAILED", err.Error())
	}

	report, err := convert.RecordToReport(rec)
	if err != nil {
		return nil, kerrors.InternalServer("DECODE_FAILED", err.Error())
	}

	return &api.GetReportResponse{ID: rec.ID, Report: report, StoredAt: rec.StoredAt}, nil
}

// RefreshHost queues a refresh command for the agent on a hostname.
func (s *Service) RefreshHost(_ context.Context, hostname string) (*api.RefreshResponse, error) {
	if hostname == "" {
		return nil, kerrors.BadRequest("MISSING_HOSTNAME", "hostname is required")
	}
	if !s.cmdQueue.IsConnected(hostname) {
		return nil, kerrors.NotFound("AGENT_NOT_CONNECTED", "no agent is polling from that hostname")
	}

	cmd := api.Command{ID: uuid.NewString(), Type: api.CommandTypeRefresh}
	if err := s.cmdQueue.Send(hostname, cmd); err != nil {
		return nil, kerrors.InternalServer("QUEUE_FAILED", err.Error())
	}

	log.Printf("Queued refresh command %s for agent on %q", cmd.ID, hostname)
	return &api.RefreshResponse{Sent: true, CommandID: cmd.ID}, nil
}

// PollCommands long-polls for pending commands for an agent.
func (s *Service) PollCommands(ctx context.Context, hostname, agentID, version string, wait time.Duration) (*api.PollCommandsResponse, error) {
	if hostname == "" {
		return nil, kerrors.BadRequest("MISSING_HOSTNAME", "hostname is required")
	}
	if wait <= 0 || wait > s.commandWait {
		wait = s.commandWait
	}

	cmds := s.cmdQueue.Poll(ctx, hostname, agentID, version, wait)
	return &api.PollCommandsResponse{Commands: cmds}, nil
}

// ListAgents returns the agents that polled recently.
func (s *Service) ListAgents(context.Context) (*api.ListAgentsResponse, error) {
	return &api.ListAgentsResponse{Agents: s.cmdQueue.ListConnected()}, nil
}

// Route adapters. Each binds the request, runs the middleware chain,
// and writes the JSON result.

func (s *Service) submitReportRoute(ctx khttp.Context) error {
	var req api.SubmitReportRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	h := ctx.Middleware(func(c context.Context, v any) (any, error) {
		return s.SubmitReport(c, v.(*api.SubmitReportRequest))
	})
	out, err := h(ctx, &req)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

func (s *Service) getReportRoute(ctx khttp.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	h := ctx.Middleware(func(c context.Context, _ any) (any, error) {
		return s.GetReport(c, id)
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

func (s *Service) listReportsRoute(ctx khttp.Context) error {
	filter, err := listFilterFromQuery(ctx)
	if err != nil {
		return err
	}
	h := ctx.Middleware(func(c context.Context, _ any) (any, error) {
		return s.ListReports(c, filter)
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

func (s *Service) deleteReportRoute(ctx khttp.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	h := ctx.Middleware(func(c context.Context, _ any) (any, error) {
		return nil, s.DeleteReport(c, id)
	})
	if _, err := h(ctx, nil); err != nil {
		return err
	}
	return ctx.Result(204, nil)
}

func (s *Service) latestReportRoute(ctx khttp.Context) error {
	hostname := ctx.Vars().Get("hostname")
	h := ctx.Middleware(func(c context.Context, _ any) (any, error) {
		return s.LatestReport(c, hostname)
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

func (s *Service) refreshHostRoute(ctx khttp.Context) error {
	hostname := ctx.Vars().Get("hostname")
	h := ctx.Middleware(func(c context.Context, _ any) (any, error) {
		return s.RefreshHost(c, hostname)
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

func (s *Service) pollCommandsRoute(ctx khttp.Context) error {
	q := ctx.Query()
	hostname := q.Get("hostname")
	agentID := q.Get("agent_id")
	version := q.Get("version")

	var wait time.Duration
	if w := q.Get("wait"); w != "" {
		d, err := time.ParseDuration(w)
		if err != nil {
			return kerrors.BadRequest("INVALID_WAIT", "wait must be a duration")
		}
		wait = d
	}

	h := ctx.Middleware(func(c context.Context, _ any) (any, error) {
		return s.PollCommands(c, hostname, agentID, version, wait)
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

func (s *Service) listAgentsRoute(ctx khttp.Context) error {
	h := ctx.Middleware(func(c context.Context, _ any) (any, error) {
		return s.ListAgents(c)
	})
	out, err := h(ctx, nil)
	if err != nil {
		return err
	}
	return ctx.Result(200, out)
}

func pathID(ctx khttp.Context) (int64, error) {
	id, err := strconv.ParseInt(ctx.Vars().Get("id"), 10, 64)
	if err != nil {
		return 0, kerrors.BadRequest("INVALID_ID", "id must be an integer")
	}
	return id, nil
}

func listFilterFromQuery(ctx khttp.Context) (store.ListFilter, error) {
	q := ctx.Query()
	filter := store.ListFilter{
		Hostname: q.Get("hostname"),
		AgentID:  q.Get("agent_id"),
	}

	if v := q.Get("collected_after"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, kerrors.BadRequest("INVALID_TIME", "collected_after must be RFC 3339")
		}
		filter.CollectedAfter = &t
	}
	if v := q.Get("collected_before"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, kerrors.BadRequest("INVALID_TIME", "collected_before must be RFC 3339")
		}
		filter.CollectedBefore = &t
	}
	if v := q.Get("page"); v != "" {
		filter.Page, _ = strconv.Atoi(v)
	}
	if v := q.Get("page_size"); v != "" {
		filter.PageSize, _ = strconv.Atoi(v)
	}

	return filter, nil
}
