// Package sysinfo reports host-level metrics included in status
// snapshots: a free-memory estimate and the daemon uptime.
package sysinfo

import (
	"time"

	"github.com/shirou/gopsutil/v4/mem"
)

var startTime = time.Now()

// Provider supplies system metrics for status snapshots.
type Provider interface {
	// FreeMemory returns an estimate of available memory in bytes.
	FreeMemory() uint64
	// Uptime returns whole seconds since the daemon started.
	Uptime() int64
}

type hostProvider struct{}

// Host returns a Provider backed by the running system.
func Host() Provider {
	return hostProvider{}
}

func (hostProvider) FreeMemory() uint64 {
	vm, err := mem.VirtualMemory()
	if err != nil {
		// Metric is best-effort; status snapshots report zero
		// rather than failing the emission.
		return 0
	}
	return vm.Available
}

func (hostProvider) Uptime() int64 {
	return int64(time.Since(startTime).Seconds())
}
