//go:build !linux

package dmi

import "github.com/go-tangra/go-tangra-facts/internal/facts"

// Resolve is a no-op on platforms without readable SMBIOS tables.
func (r *Resolver) Resolve(_ *facts.Collection) {
	r.log.Debugf("SMBIOS tables are not readable on this platform: dmi fact is unavailable")
}
