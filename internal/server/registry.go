package server

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-tangra/go-tangra-facts/internal/api"
)

const (
	commandChannelBufferSize = 16

	// sendTimeout bounds how long Send blocks on a full queue.
	sendTimeout = 5 * time.Second

	// staleAfter is how long after its last poll an agent still counts
	// as connected. Agents poll far more often than this.
	staleAfter = 90 * time.Second
)

// agentQueue holds the pending commands and metadata for one agent.
type agentQueue struct {
	ch       chan api.Command
	agentID  string
	version  string
	lastSeen time.Time
}

// CommandQueue tracks long-polling agents and queues commands for them,
// keyed by hostname.
type CommandQueue struct {
	mu     sync.Mutex
	agents map[string]*agentQueue
}

// NewCommandQueue creates an empty CommandQueue.
func NewCommandQueue() *CommandQueue {
	return &CommandQueue{agents: make(map[string]*agentQueue)}
}

// Poll marks the agent as connected and returns its pending commands.
// When none are queued it waits up to wait for one to arrive, so agents
// can long-poll instead of busy-polling.
func (q *CommandQueue) Poll(ctx context.Context, hostname, agentID, version string, wait time.Duration) []api.Command {
	q.mu.Lock()
	a, ok := q.agents[hostname]
	if !ok {
		a = &agentQueue{ch: make(chan api.Command, commandChannelBufferSize)}
		q.agents[hostname] = a
	}
	a.agentID = agentID
	a.version = version
	a.lastSeen = time.Now()
	ch := a.ch
	q.mu.Unlock()

	var cmds []api.Command
drain:
	for {
		select {
		case cmd := <-ch:
			cmds = append(cmds, cmd)
		default:
			break drain
		}
	}

	if len(cmds) == 0 && wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case cmd := <-ch:
			cmds = append(cmds, cmd)
		case <-ctx.Done():
		case <-timer.C:
		}
	}

	q.mu.Lock()
	a.lastSeen = time.Now()
	q.mu.Unlock()

	return cmds
}

// Send queues a command for the agent on the given hostname. Returns an
// error if the agent has not polled recently or its queue stays full.
func (q *CommandQueue) Send(hostname string, cmd api.Command) error {
	q.mu.Lock()
	a, ok := q.agents[hostname]
	fresh := ok && time.Since(a.lastSeen) < staleAfter
	q.mu.Unlock()

	if !fresh {
		return fmt.Errorf("agent on %s is not connected", hostname)
	}

	select {
	case a.ch <- cmd:
		return nil
	case <-time.After(sendTimeout):
		return fmt.Errorf("timeout queuing command for agent on %s", hostname)
	}
}

// IsConnected reports whether the agent on hostname polled recently.
func (q *CommandQueue) IsConnected(hostname string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	a, ok := q.agents[hostname]
	return ok && time.Since(a.lastSeen) < staleAfter
}

// ListConnected returns a snapshot of recently polling agents, sorted
// by hostname.
func (q *CommandQueue) ListConnected() []api.ConnectedAgent {
	q.mu.Lock()
	defer q.mu.Unlock()

	result := make([]api.ConnectedAgent, 0, len(q.agents))
	for hostname, a := range q.agents {
		if time.Since(a.lastSeen) >= staleAfter {
			continue
		}
		result = append(result, api.ConnectedAgent{
			AgentID:  a.agentID,
			Hostname: hostname,
			Version:  a.version,
			LastSeen: a.lastSeen,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Hostname < result[j].Hostname })
	return result
}
