// Package config loads VM tunables from a TOML file, the way
// cmd/gprobe's dumpconfig/loadConfig pair in the example pack loads
// node configuration: a typed Go struct with field defaults, decoded
// with naoina/toml. File keys are the snake_case names given in
// VMConfig's toml struct tags.
package config

import (
	"fmt"
	"os"

	"github.com/naoina/toml"

	"github.com/kristofer/cmel/internal/vm"
)

// VMConfig mirrors the constants spec.md §4.5/§4.7 fixes (GC heap
// size and growth, call-frame depth) as tunables. The operand stack
// size has no tunable; it is package vm's StackMax constant.
type VMConfig struct {
	// InitialHeapMB is the heap size, in mebibytes, before the first
	// garbage collection runs. spec.md default: 1.
	InitialHeapMB float64 `toml:"initial_heap_mb"`

	// HeapGrowthFactor multiplies the live-bytes-after-sweep figure to
	// get the next collection threshold. spec.md default: 2.0.
	HeapGrowthFactor float64 `toml:"heap_growth_factor"`

	// FramesMax bounds call-stack depth (spec.md §4.7's "Stack
	// overflow." runtime error). Informational here: package vm's
	// FramesMax constant is the actual enforced limit; a config value
	// above it cannot be honored by this build.
	FramesMax int `toml:"frames_max"`

	// DebugGC enables the GC's per-collection stderr tracing.
	DebugGC bool `toml:"debug_gc"`
}

// Default returns the tunables spec.md specifies as defaults.
func Default() VMConfig {
	return VMConfig{
		InitialHeapMB:    1,
		HeapGrowthFactor: 2.0,
		FramesMax:        vm.FramesMax,
		DebugGC:          false,
	}
}

// Load reads and decodes a TOML config file at path, starting from
// Default() so a partial file only overrides the keys it sets.
func Load(path string) (VMConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Apply pushes cfg onto v. Call it right after vm.New, before any
// program runs, since heap tunables take effect by rewriting the GC's
// next-collection threshold directly.
func Apply(cfg VMConfig, v *vm.VM) {
	v.DebugGC = cfg.DebugGC
	v.SetHeapTunables(uint64(cfg.InitialHeapMB*1024*1024), cfg.HeapGrowthFactor)
}
