package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tunables.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `
size_classes: [32, 64, 128]
gc_min_bytes_threshold: 4096
collect_on_every_allocation: true
debug: true
`)
	tun, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(tun.SizeClasses) != 3 || tun.SizeClasses[2] != 128 {
		t.Errorf("SizeClasses = %v, want [32 64 128]", tun.SizeClasses)
	}
	if tun.GCMinBytesThreshold != 4096 {
		t.Errorf("GCMinBytesThreshold = %d, want 4096", tun.GCMinBytesThreshold)
	}
	if !tun.CollectOnEveryAllocation || !tun.Debug {
		t.Errorf("boolean toggles not parsed")
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("Load of a missing file did not return an error")
	}
	path := writeFile(t, "size_classes: [not a number")
	if _, err := Load(path); err == nil {
		t.Errorf("Load of malformed YAML did not return an error")
	}
}

func TestDefaults(t *testing.T) {
	fallback := []uintptr{16, 32}

	var nilTunables *Tunables
	if got := nilTunables.SizeClassesOrDefault(fallback); len(got) != 2 {
		t.Errorf("nil Tunables did not fall back to defaults")
	}
	if got := nilTunables.GCMinBytesThresholdOrDefault(512); got != 512 {
		t.Errorf("nil Tunables threshold = %d, want 512", got)
	}

	tun := &Tunables{GCMinBytesThreshold: 64}
	if got := tun.SizeClassesOrDefault(fallback); len(got) != 2 {
		t.Errorf("empty SizeClasses did not fall back")
	}
	if got := tun.GCMinBytesThresholdOrDefault(512); got != 64 {
		t.Errorf("explicit threshold = %d, want 64", got)
	}
}
