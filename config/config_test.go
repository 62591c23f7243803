package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/metacall/metacall-go/config"
)

func TestLoadReadsSearchPathEnvVars(t *testing.T) {
	t.Setenv("LOADER_LIBRARY_PATH", "/opt/loaders"+string(os.PathListSeparator)+"/usr/local/loaders")
	t.Setenv("LOADER_SCRIPT_PATH", "/srv/scripts")
	t.Setenv("CONFIGURATION_PATH", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/loaders", "/usr/local/loaders"}, cfg.LibraryPaths)
	assert.Equal(t, []string{"/srv/scripts"}, cfg.ScriptPaths)
	assert.Empty(t, cfg.Loaders)
}

func TestLoadParsesConfigurationDocumentAndManifests(t *testing.T) {
	dir := t.TempDir()

	manifestPath := filepath.Join(dir, "py.yaml")
	require.NoError(t, os.WriteFile(manifestPath, []byte(`
tag: py
confined: true
rate_limit: 50
burst: 10
script_paths:
  - /srv/py
`), 0o644))

	docPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(docPath, []byte(`{"loader_manifests":["py.yaml"]}`), 0o644))

	t.Setenv("LOADER_LIBRARY_PATH", "")
	t.Setenv("LOADER_SCRIPT_PATH", "")
	t.Setenv("CONFIGURATION_PATH", docPath)

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Len(t, cfg.Loaders, 1)
	m := cfg.Loaders[0]
	assert.Equal(t, "py", m.Tag)
	assert.True(t, m.Confined)
	assert.Equal(t, []string{"/srv/py"}, m.ScriptPaths)
	assert.Equal(t, rate.Limit(50), m.RateLimitValue())
}

func TestLoadRejectsManifestWithoutTag(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(manifestPath, []byte(`confined: false`), 0o644))
	docPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(docPath, []byte(`{"loader_manifests":["bad.yaml"]}`), 0o644))

	t.Setenv("CONFIGURATION_PATH", docPath)
	_, err := config.Load()
	assert.Error(t, err)
}

func TestRateLimitValueDefaultsToUnlimited(t *testing.T) {
	m := config.LoaderManifest{Tag: "py"}
	assert.Equal(t, rate.Inf, m.RateLimitValue())
}
