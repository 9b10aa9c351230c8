package workspaces

import "sort"

// PortConfig describes the per-service base ranges ports are drawn from.
// Each logical service scans upward from its base in fixed steps until a
// free port is found, so co-located workspaces never collide.
type PortConfig struct {
	// Services maps a logical service name (daphne, redis, ...) to the
	// first port of its range.
	Services map[string]int `mapstructure:"services"`
	// Step is the distance between consecutive candidates of one service.
	Step int `mapstructure:"step"`
	// MaxOffsets bounds the scan; past it allocation fails for the request.
	MaxOffsets int `mapstructure:"max_offsets"`
}

// candidatePort returns the attempt-th candidate for a service base.
func candidatePort(base, step, attempt int) int {
	return base + attempt*step
}

// serviceNames returns the configured logical services in stable order so
// allocation probes the same sequence regardless of map iteration.
func (c PortConfig) serviceNames() []string {
	names := make([]string, 0, len(c.Services))
	for name := range c.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
