// Package config loads collector tunables from a YAML file, overriding
// the defaults baked into the heap package.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Tunables overrides the heap package's compiled-in defaults. Any field
// left at its zero value in the YAML document keeps the default.
type Tunables struct {
	// SizeClasses overrides the set of cell size classes, smallest first.
	SizeClasses []uintptr `yaml:"size_classes"`
	// GCMinBytesThreshold overrides the floor for the adaptive allocation
	// threshold.
	GCMinBytesThreshold uint64 `yaml:"gc_min_bytes_threshold"`
	// CollectOnEveryAllocation matches heap.Heap's field of the same name.
	CollectOnEveryAllocation bool `yaml:"collect_on_every_allocation"`
	// Debug matches heap.Heap's field of the same name.
	Debug bool `yaml:"debug"`
}

// Load reads and parses a Tunables document from path. A malformed or
// unreadable file is a recoverable error, not a panic: config loading is
// the one place this collector's error handling returns an error value
// instead of panicking on a violated precondition.
func Load(path string) (*Tunables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var t Tunables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &t, nil
}

// SizeClassesOrDefault returns t.SizeClasses if non-empty, otherwise
// fallback.
func (t *Tunables) SizeClassesOrDefault(fallback []uintptr) []uintptr {
	if t == nil || len(t.SizeClasses) == 0 {
		return fallback
	}
	return t.SizeClasses
}

// GCMinBytesThresholdOrDefault returns t.GCMinBytesThreshold if set,
// otherwise fallback.
func (t *Tunables) GCMinBytesThresholdOrDefault(fallback uint64) uint64 {
	if t == nil || t.GCMinBytesThreshold == 0 {
		return fallback
	}
	return t.GCMinBytesThreshold
}
