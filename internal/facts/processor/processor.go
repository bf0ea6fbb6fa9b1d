// Package processor resolves the "processors" fact from the kernel's
// CPU parameters.
package processor

import (
	"github.com/go-kratos/kratos/v2/log"

	"github.com/go-tangra/go-tangra-facts/internal/facts"
	"github.com/go-tangra/go-tangra-facts/internal/sysquery"
)

// Kernel parameter names for processor characteristics.
const (
	queryLogicalCPUMax  = "hw.logicalcpu_max"
	queryPhysicalCPUMax = "hw.physicalcpu_max"
	queryBrandString    = "machdep.cpu.brand_string"
)

// initialBufferSize is the starting buffer size for the brand string
// read; the buffer doubles until the value fits.
const initialBufferSize = 256

// Resolver populates the "processors" fact.
type Resolver struct {
	src sysquery.Source
	log *log.Helper
}

// New returns a processor resolver reading from src.
func New(src sysquery.Source, logger log.Logger) *Resolver {
	return &Resolver{
		src: src,
		log: log.NewHelper(log.With(logger, "module", "facts.processor")),
	}
}

// Name identifies the resolver in logs.
func (r *Resolver) Name() string { return "processor" }

// Resolve queries the logical and physical CPU counts and the CPU brand
// string, and adds a "processors" fact when any of them resolved. The
// count queries fail independently. A brand string failure other than a
// too-small buffer drops the whole fact, counts included.
func (r *Resolver) Resolve(c *facts.Collection) {
	processors := facts.NewMap()

	logicalCount, err := r.src.Int32(queryLogicalCPUMax)
	if err != nil {
		msg, code := sysquery.Describe(err)
		r.log.Debugf("%s query failed: %s (%d): %s fact is unavailable", queryLogicalCPUMax, msg, code, facts.FactProcessorCount)
	} else {
		processors.Add("count", facts.Int(int64(logicalCount)))
	}

	physicalCount, err := r.src.Int32(queryPhysicalCPUMax)
	if err != nil {
		msg, code := sysquery.Describe(err)
		r.log.Debugf("%s query failed: %s (%d): %s fact is unavailable", queryPhysicalCPUMax, msg, code, facts.FactPhysicalProcessorCount)
	} else {
		processors.Add("physicalcount", facts.Int(int64(physicalCount)))
	}

	models := facts.NewArray()
	if logicalCount > 0 {
		// The kernel exposes one brand string for all logical
		// processors, so every entry is identical.
		buf := make([]byte, initialBufferSize)
		var brand string
		for {
			n, err := r.src.String(queryBrandString, buf)
			if err == nil {
				brand = string(buf[:n])
				break
			}
			if !sysquery.IsInsufficientBuffer(err) {
				msg, code := sysquery.Describe(err)
				r.log.Debugf("%s query failed: %s (%d): %s facts are unavailable", queryBrandString, msg, code, facts.FactProcessor)
				return
			}
			buf = make([]byte, len(buf)*2)
		}
		for i := int32(0); i < logicalCount; i++ {
			models.Add(facts.String(brand))
		}
	}

	if models.Len() > 0 {
		processors.Add("models", models)
	}
	if !processors.Empty() {
		c.Add(facts.FactProcessors, processors)
	}
}
