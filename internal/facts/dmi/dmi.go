// Package dmi resolves system identity facts from SMBIOS/DMI tables.
package dmi

import (
	"github.com/go-kratos/kratos/v2/log"

	"github.com/go-tangra/go-tangra-facts/internal/facts"
)

// Resolver populates the "dmi" fact from the platform's SMBIOS tables.
// Platforms without readable tables yield no fact.
type Resolver struct {
	log *log.Helper
}

// New returns a DMI resolver.
func New(logger log.Logger) *Resolver {
	return &Resolver{
		log: log.NewHelper(log.With(logger, "module", "facts.dmi")),
	}
}

// Name identifies the resolver in logs.
func (r *Resolver) Name() string { return "dmi" }

// addNonEmpty sets key only when the decoded SMBIOS string is present.
func addNonEmpty(m *facts.Map, key, value string) {
	if value == "" {
		return
	}
	m.Add(key, facts.String(value))
}
