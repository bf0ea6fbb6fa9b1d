// Package kernel resolves kernel identity facts from the kernel's own
// version parameters.
package kernel

import (
	"strings"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/go-tangra/go-tangra-facts/internal/facts"
	"github.com/go-tangra/go-tangra-facts/internal/sysquery"
)

const (
	queryOSType    = "kern.ostype"
	queryOSRelease = "kern.osrelease"
	queryVersion   = "kern.version"
)

// Resolver populates the kernel, kernelrelease, kernelversion, and
// kernelmajversion facts.
type Resolver struct {
	src sysquery.Source
	log *log.Helper
}

// New returns a kernel resolver reading from src.
func New(src sysquery.Source, logger log.Logger) *Resolver {
	return &Resolver{
		src: src,
		log: log.NewHelper(log.With(logger, "module", "facts.kernel")),
	}
}

// Name identifies the resolver in logs.
func (r *Resolver) Name() string { return "kernel" }

// Resolve adds whichever kernel identity facts could be read. Each
// query fails independently.
func (r *Resolver) Resolve(c *facts.Collection) {
	if v, ok := r.read(queryOSType, "kernel"); ok {
		c.Add("kernel", facts.String(v))
	}

	if release, ok := r.read(queryOSRelease, "kernelrelease"); ok {
		c.Add("kernelrelease", facts.String(release))
		if maj := majorVersion(release); maj != "" {
			c.Add("kernelmajversion", facts.String(maj))
		}
	}

	if v, ok := r.read(queryVersion, "kernelversion"); ok {
		// kern.version is a multi-line banner; keep the first line.
		if i := strings.IndexByte(v, '\n'); i >= 0 {
			v = v[:i]
		}
		c.Add("kernelversion", facts.String(strings.TrimSpace(v)))
	}
}

func (r *Resolver) read(query, fact string) (string, bool) {
	v, err := sysquery.ReadString(r.src, query, 256)
	if err != nil {
		msg, code := sysquery.Describe(err)
		r.log.Debugf("%s query failed: %s (%d): %s fact is unavailable", query, msg, code, fact)
		return "", false
	}
	return v, true
}

// majorVersion reduces a release like "23.1.0" to "23.1".
func majorVersion(release string) string {
	parts := strings.Split(release, ".")
	if len(parts) < 2 {
		return release
	}
	return parts[0] + "." + parts[1]
}
