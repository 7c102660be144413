package service

import (
	"math"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// Stats is a point-in-time CPU/memory sample for a bot process.
type Stats struct {
	CPUPercent float64
	MemoryMB   float64
}

// StatsProbe samples OS-level resource usage for a pid. Samples are
// advisory: a dead or inaccessible pid yields zeros, never an error.
type StatsProbe struct {
	cpuInterval time.Duration
}

func NewStatsProbe() *StatsProbe {
	return &StatsProbe{cpuInterval: 100 * time.Millisecond}
}

// Sample returns a short-window CPU percentage and the resident set size
// in megabytes, both rounded to two decimals for display stability.
func (sp *StatsProbe) Sample(pid int) Stats {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return Stats{}
	}

	var s Stats
	if cpu, err := proc.Percent(sp.cpuInterval); err == nil {
		s.CPUPercent = round2(cpu)
	}
	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		s.MemoryMB = round2(float64(mem.RSS) / (1024 * 1024))
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
