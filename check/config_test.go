package check

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigFile)
	content := `name: art-tests
prefix: CHECK
arch: ARM64
debuggable: true
partial: true
parallel: true
extensions: [".java"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Config{
		Name:       "art-tests",
		Prefix:     "CHECK",
		Arch:       "ARM64",
		Debuggable: true,
		Partial:    true,
		Parallel:   true,
		Extensions: []string{".java"},
	}, config)

	ec := config.EngineConfig()
	assert.Equal(t, "CHECK", ec.Prefix)
	assert.Equal(t, "ARM64", ec.Options.Arch)
	assert.True(t, ec.Options.Partial)
	assert.True(t, ec.Options.Parallel)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()

	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)

	config, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)

	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigFile)
	require.NoError(t, os.WriteFile(path, []byte("arch: X86\n"), 0o644))
	config, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "X86", config.Arch)
	assert.Equal(t, "CHECK", config.Prefix, "unset fields keep their defaults")
}

func TestLoadConfigErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("arch: [\n"), 0o644))
	_, err := LoadConfig(bad)
	assert.Error(t, err)

	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("rules: {}\n"), 0o644))
	_, err = LoadConfig(unknown)
	assert.Error(t, err)

	arch := filepath.Join(dir, "arch.yaml")
	require.NoError(t, os.WriteFile(arch, []byte("arch: Z80\n"), 0o644))
	_, err = LoadConfig(arch)
	assert.ErrorContains(t, err, "unknown architecture")
}

func TestWriteConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	want := DefaultConfig()
	want.Partial = true
	require.NoError(t, WriteConfig(path, want))

	got, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadConfigEmptyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)
}
