// Package api defines the JSON wire types shared by the collector
// server and the facter agent.
package api

import (
	"time"

	"github.com/go-tangra/go-tangra-facts/internal/facts"
)

// Report is a full fact collection from one host at one point in time.
type Report struct {
	AgentID     string            `json:"agent_id"`
	Hostname    string            `json:"hostname"`
	Version     string            `json:"version"`
	CollectedAt time.Time         `json:"collected_at"`
	Facts       *facts.Collection `json:"facts"`
}

// SubmitReportRequest is the body of POST /v1/reports.
type SubmitReportRequest struct {
	Report *Report `json:"report"`
}

// SubmitReportResponse returns the assigned record ID.
type SubmitReportResponse struct {
	ID       int64     `json:"id"`
	StoredAt time.Time `json:"stored_at"`
}

// GetReportResponse is the body of GET /v1/reports/{id} and
// GET /v1/hosts/{hostname}/latest.
type GetReportResponse struct {
	ID       int64     `json:"id"`
	Report   *Report   `json:"report"`
	StoredAt time.Time `json:"stored_at"`
}

// ReportSummary is a report row without the fact payload.
type ReportSummary struct {
	ID          int64     `json:"id"`
	AgentID     string    `json:"agent_id"`
	Hostname    string    `json:"hostname"`
	CollectedAt time.Time `json:"collected_at"`
	StoredAt    time.Time `json:"stored_at"`
}

// ListReportsResponse is the body of GET /v1/reports.
type ListReportsResponse struct {
	Reports    []ReportSummary `json:"reports"`
	TotalCount int             `json:"total_count"`
}

// CommandTypeRefresh asks an agent to re-collect and re-submit facts.
const CommandTypeRefresh = "refresh"

// Command is an instruction delivered to a long-polling agent.
type Command struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// PollCommandsResponse is the body of GET /v1/commands. Commands may be
// empty when the poll wait elapsed without work.
type PollCommandsResponse struct {
	Commands []Command `json:"commands"`
}

// RefreshResponse is the body of POST /v1/hosts/{hostname}/refresh.
type RefreshResponse struct {
	Sent      bool   `json:"sent"`
	CommandID string `json:"command_id"`
}

// ConnectedAgent describes an agent that polled recently.
type ConnectedAgent struct {
	AgentID  string    `json:"agent_id"`
	Hostname string    `json:"hostname"`
	Version  string    `json:"version"`
	LastSeen time.Time `json:"last_seen"`
}

// ListAgentsResponse is the body of GET /v1/agents.
type ListAgentsResponse struct {
	Agents []ConnectedAgent `json:"agents"`
}
