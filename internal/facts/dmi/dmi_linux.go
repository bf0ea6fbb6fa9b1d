//go:build linux

package dmi

import (
	"fmt"

	"github.com/siderolabs/go-smbios/smbios"

	"github.com/go-tangra/go-tangra-facts/internal/facts"
)

// Resolve decodes the SMBIOS tables and adds a "dmi" fact with BIOS,
// system, baseboard, and chassis identity. Reading the tables usually
// requires root; failure is logged and the fact stays absent.
func (r *Resolver) Resolve(c *facts.Collection) {
	s, err := smbios.New()
	if err != nil {
		r.log.Debugf("SMBIOS read failed: %v: dmi fact is unavailable", err)
		return
	}

	dmi := facts.NewMap()
	dmi.Add("smbios_version", facts.String(fmt.Sprintf("%d.%d", s.Version.Major, s.Version.Minor)))

	bios := facts.NewMap()
	addNonEmpty(bios, "vendor", s.BIOSInformation.Vendor)
	addNonEmpty(bios, "version", s.BIOSInformation.Version)
	addNonEmpty(bios, "release_date", s.BIOSInformation.ReleaseDate)
	if !bios.Empty() {
		dmi.Add("bios", bios)
	}

	system := facts.NewMap()
	addNonEmpty(system, "manufacturer", s.SystemInformation.Manufacturer)
	addNonEmpty(system, "product_name", s.SystemInformation.ProductName)
	addNonEmpty(system, "version", s.SystemInformation.Version)
	addNonEmpty(system, "serial_number", s.SystemInformation.SerialNumber)
	addNonEmpty(system, "uuid", s.SystemInformation.UUID)
	addNonEmpty(system, "sku_number", s.SystemInformation.SKUNumber)
	addNonEmpty(system, "family", s.SystemInformation.Family)
	if !system.Empty() {
		dmi.Add("system", system)
	}

	board := facts.NewMap()
	addNonEmpty(board, "manufacturer", s.BaseboardInformation.Manufacturer)
	addNonEmpty(board, "product", s.BaseboardInformation.Product)
	addNonEmpty(board, "version", s.BaseboardInformation.Version)
	addNonEmpty(board, "serial_number", s.BaseboardInformation.SerialNumber)
	addNonEmpty(board, "asset_tag", s.BaseboardInformation.AssetTag)
	if !board.Empty() {
		dmi.Add("board", board)
	}

	chassis := facts.NewMap()
	addNonEmpty(chassis, "manufacturer", s.SystemEnclosure.Manufacturer)
	addNonEmpty(chassis, "version", s.SystemEnclosure.Version)
	addNonEmpty(chassis, "serial_number", s.SystemEnclosure.SerialNumber)
	addNonEmpty(chassis, "asset_tag", s.SystemEnclosure.AssetTagNumber)
	if !chassis.Empty() {
		dmi.Add("chassis", chassis)
	}

	if !dmi.Empty() {
		c.Add("dmi", dmi)
	}
}
