// Package sysinfo reads host memory to place the machine in a RAM tier.
package sysinfo

import (
	"github.com/shirou/gopsutil/v3/mem"

	"arcticd/pkg/types"
)

// TotalRAMGB reports installed physical memory in gigabytes.
func TotalRAMGB() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return float64(vm.Total) / (1024 * 1024 * 1024), nil
}

// DetectRamTier buckets the host into a tier. Detection failure degrades
// to the lowest tier rather than erroring, so callers always get a
// usable value.
func DetectRamTier() types.RamTier {
	gb, err := TotalRAMGB()
	if err != nil {
		return types.RamTierC
	}
	return types.RamTierFromGigabytes(gb)
}
