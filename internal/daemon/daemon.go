// Package daemon runs the agent's background collect-and-submit loop.
package daemon

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	klog "github.com/go-kratos/kratos/v2/log"

	"github.com/go-tangra/go-tangra-facts/internal/api"
	"github.com/go-tangra/go-tangra-facts/internal/gather"
	"github.com/go-tangra/go-tangra-facts/internal/sender"
)

// Config holds daemon-mode configuration.
type Config struct {
	CollectorAddr string
	ClientSecret  string
	AgentID       string
	Version       string
	Interval      time.Duration
	PollWait      time.Duration
}

const (
	baseBackoff     = 1 * time.Second
	maxBackoff      = 2 * time.Minute
	defaultInterval = 1 * time.Hour
	defaultPollWait = 25 * time.Second
)

// Run performs an initial collect-and-submit, then long-polls the
// collector for refresh commands and re-submits on a periodic interval.
func Run(ctx context.Context, logger klog.Logger, cfg Config) error {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.PollWait <= 0 {
		cfg.PollWait = defaultPollWait
	}

	if err := collectAndSend(ctx, logger, cfg); err != nil {
		return fmt.Errorf("initial report submit: %w", err)
	}
	log.Println("Initial report submitted; entering daemon mode")

	pollLoop(ctx, logger, cfg)
	return nil
}

func pollLoop(ctx context.Context, logger klog.Logger, cfg Config) {
	hostname, _ := os.Hostname()
	attempt := 0
	nextSubmit := time.Now().Add(cfg.Interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("Daemon shutting down")
			return
		default:
		}

		cmds, err := sender.PollCommands(ctx, cfg.CollectorAddr, cfg.ClientSecret,
			hostname, cfg.AgentID, cfg.Version, cfg.PollWait)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			attempt++
			backoff := calcBackoff(attempt)
			log.Printf("Poll failed (attempt %d): %v; retrying in %s", attempt, err, backoff)

			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			continue
		}
		attempt = 0

		for _, cmd := range cmds {
			switch cmd.Type {
			case api.CommandTypeRefresh:
				log.Printf("Received refresh command %s", cmd.ID)
				handleRefresh(ctx, logger, cfg)
				nextSubmit = time.Now().Add(cfg.Interval)
			default:
				log.Printf("Unknown command type %q (id: %s), ignoring", cmd.Type, cmd.ID)
			}
		}

		if time.Now().After(nextSubmit) {
			handleRefresh(ctx, logger, cfg)
			nextSubmit = time.Now().Add(cfg.Interval)
		}
	}
}

func handleRefresh(ctx context.Context, logger klog.Logger, cfg Config) {
	if err := collectAndSend(ctx, logger, cfg); err != nil {
		log.Printf("Refresh failed: %v", err)
	} else {
		log.Println("Refresh complete; report re-submitted")
	}
}

func collectAndSend(ctx context.Context, logger klog.Logger, cfg Config) error {
	report := gather.Collect(logger, cfg.AgentID, cfg.Version)
	_, err := sender.Send(ctx, cfg.CollectorAddr, cfg.ClientSecret, report)
	return err
}

func calcBackoff(attempt int) time.Duration {
	d := baseBackoff * time.Duration(math.Pow(2, float64(attempt-1)))
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}
