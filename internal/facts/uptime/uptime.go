// Package uptime resolves uptime and load average facts.
package uptime

import (
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"

	"github.com/go-tangra/go-tangra-facts/internal/facts"
)

// Resolver populates the "uptime" and "load_averages" facts.
type Resolver struct {
	log *log.Helper
}

// New returns an uptime resolver.
func New(logger log.Logger) *Resolver {
	return &Resolver{
		log: log.NewHelper(log.With(logger, "module", "facts.uptime")),
	}
}

// Name identifies the resolver in logs.
func (r *Resolver) Name() string { return "uptime" }

// Resolve adds uptime and load facts. Each source fails independently.
func (r *Resolver) Resolve(c *facts.Collection) {
	if seconds, err := host.Uptime(); err != nil {
		r.log.Debugf("uptime query failed: %v: uptime fact is unavailable", err)
	} else {
		up := facts.NewMap()
		up.Add("seconds", facts.Int(int64(seconds)))
		up.Add("days", facts.Int(int64(seconds/86400)))
		up.Add("uptime", facts.String(formatUptime(seconds)))
		if boot, err := host.BootTime(); err == nil {
			up.Add("boot_time", facts.String(time.Unix(int64(boot), 0).UTC().Format(time.RFC3339)))
		}
		c.Add("uptime", up)
	}

	if avg, err := load.Avg(); err != nil {
		r.log.Debugf("load average query failed: %v: load_averages fact is unavailable", err)
	} else {
		loads := facts.NewMap()
		loads.Add("1m", facts.Float(avg.Load1))
		loads.Add("5m", facts.Float(avg.Load5))
		loads.Add("15m", facts.Float(avg.Load15))
		c.Add("load_averages", loads)
	}
}

// formatUptime renders seconds as "N days" / "H:MM hours" the way
// system tools report it.
func formatUptime(seconds uint64) string {
	days := seconds / 86400
	if days > 0 {
		return fmt.Sprintf("%d days", days)
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d hours", hours, minutes)
	}
	return fmt.Sprintf("%d minutes", seconds/60)
}
