package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/cmel/internal/vm"
)

func TestDefaultMatchesSpecDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1.0, cfg.InitialHeapMB)
	assert.Equal(t, 2.0, cfg.HeapGrowthFactor)
	assert.Equal(t, vm.FramesMax, cfg.FramesMax)
	assert.False(t, cfg.DebugGC)
}

func TestLoadOverridesOnlySetKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cmel.toml")
	require.NoError(t, os.WriteFile(path, []byte("debug_gc = true\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.DebugGC)
	assert.Equal(t, 1.0, cfg.InitialHeapMB, "unset keys keep their Default() value")
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestApplyPushesDebugGCOntoVM(t *testing.T) {
	v := vm.New()
	Apply(VMConfig{InitialHeapMB: 2, HeapGrowthFactor: 3, DebugGC: true}, v)
	assert.True(t, v.DebugGC)
}
