// Package convert maps between wire reports and store records.
package convert

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-tangra/go-tangra-facts/internal/api"
	"github.com/go-tangra/go-tangra-facts/internal/store"
)

// ReportToRecord converts a wire report to a store record.
func ReportToRecord(r *api.Report) (*store.Record, error) {
	factsJSON, err := json.Marshal(r.Facts)
	if err != nil {
		return nil, fmt.Errorf("marshal facts to JSON: %w", err)
	}

	collectedAt := r.CollectedAt
	if collectedAt.IsZero() {
		collectedAt = time.Now().UTC()
	}

	return &store.Record{
		AgentID:     r.AgentID,
		Hostname:    r.Hostname,
		CollectedAt: collectedAt,
		FactsJSON:   string(factsJSON),
	}, nil
}

// RecordToReport converts a store record back to a wire report.
func RecordToReport(rec *store.Record) (*api.Report, error) {
	r := &api.Report{
		AgentID:     rec.AgentID,
		Hostname:    rec.Hostname,
		CollectedAt: rec.CollectedAt,
	}
	if err := json.Unmarshal([]byte(rec.FactsJSON), &r.Facts); err != nil {
		return nil, fmt.Errorf("unmarshal facts JSON: %w", err)
	}
	return r, nil
}

// RecordToSummary converts a store record to a report summary.
func RecordToSummary(rec *store.Record) api.ReportSummary {
	return api.ReportSummary{
		ID:          rec.ID,
		AgentID:     rec.AgentID,
		Hostname:    rec.Hostname,
		CollectedAt: rec.CollectedAt,
		StoredAt:    rec.StoredAt,
	}
}
