// Package memory resolves physical memory facts.
package memory

import (
	"fmt"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/go-tangra/go-tangra-facts/internal/facts"
	"github.com/go-tangra/go-tangra-facts/internal/sysquery"
)

const (
	queryMemSize  = "hw.memsize"
	queryPageSize = "hw.pagesize"
)

// Resolver populates the "memory" fact with total size and page size.
type Resolver struct {
	src sysquery.Source
	log *log.Helper
}

// New returns a memory resolver reading from src.
func New(src sysquery.Source, logger log.Logger) *Resolver {
	return &Resolver{
		src: src,
		log: log.NewHelper(log.With(logger, "module", "facts.memory")),
	}
}

// Name identifies the resolver in logs.
func (r *Resolver) Name() string { return "memory" }

// Resolve adds a "memory" fact when either query succeeds.
func (r *Resolver) Resolve(c *facts.Collection) {
	memory := facts.NewMap()

	if total, err := r.src.Int64(queryMemSize); err != nil {
		msg, code := sysquery.Describe(err)
		r.log.Debugf("%s query failed: %s (%d): memory fact is unavailable", queryMemSize, msg, code)
	} else {
		memory.Add("total_bytes", facts.Int(total))
		memory.Add("total", facts.String(humanSize(total)))
	}

	if pageSize, err := r.src.Int64(queryPageSize); err != nil {
		msg, code := sysquery.Describe(err)
		r.log.Debugf("%s query failed: %s (%d): page size is unavailable", queryPageSize, msg, code)
	} else {
		memory.Add("page_size", facts.Int(pageSize))
	}

	if !memory.Empty() {
		c.Add("memory", memory)
	}
}

// humanSize renders a byte count in the largest whole binary unit.
func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d bytes", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
