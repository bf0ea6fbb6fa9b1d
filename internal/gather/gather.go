// Package gather assembles a fact report from the local host.
package gather

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"

	"github.com/go-tangra/go-tangra-facts/internal/api"
	"github.com/go-tangra/go-tangra-facts/internal/facts"
	"github.com/go-tangra/go-tangra-facts/internal/facts/dmi"
	"github.com/go-tangra/go-tangra-facts/internal/facts/kernel"
	"github.com/go-tangra/go-tangra-facts/internal/facts/memory"
	"github.com/go-tangra/go-tangra-facts/internal/facts/processor"
	"github.com/go-tangra/go-tangra-facts/internal/facts/uptime"
	"github.com/go-tangra/go-tangra-facts/internal/sysquery"
)

// Collect runs every resolver against the local host. Resolver failures
// surface as absent facts, never as errors.
func Collect(logger log.Logger, agentID, version string) *api.Report {
	hostname, _ := os.Hostname()

	c := facts.NewCollection()
	src := sysquery.New()
	c.Register(processor.New(src, logger))
	c.Register(kernel.New(src, logger))
	c.Register(memory.New(src, logger))
	c.Register(dmi.New(logger))
	c.Register(uptime.New(logger))
	c.ResolveAll()

	return &api.Report{
		AgentID:     agentID,
		Hostname:    hostname,
		Version:     version,
		CollectedAt: time.Now().UTC(),
		Facts:       c,
	}
}

// AgentID returns the persisted agent identity from stateDir, creating
// a new UUID on first run.
func AgentID(stateDir string) (string, error) {
	if stateDir == "" {
		stateDir = defaultStateDir()
	}
	path := filepath.Join(stateDir, "agent_id")

	data, err := os.ReadFile(path)
	if err == nil {
		id := strings.TrimSpace(string(data))
		if _, parseErr := uuid.Parse(id); parseErr == nil {
			return id, nil
		}
		// Corrupt file: fall through and regenerate.
	}

	id := uuid.NewString()
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return "", fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("persist agent id: %w", err)
	}
	return id, nil
}

func defaultStateDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".go-tangra-facts")
	}
	return "."
}
