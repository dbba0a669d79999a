package configpaths

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigCandidatePaths(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses XDG_CONFIG_HOME")
	}
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	wd, err := os.Getwd()
	require.NoError(t, err)

	jsonPaths, yamlPaths, tomlPaths := ConfigCandidatePaths("custom.yml")
	assert.Equal(t, []string{
		filepath.Join(wd, "luaproto.json"),
		filepath.Join(xdg, "luaproto", "luaproto.json"),
	}, jsonPaths)
	assert.Equal(t, "custom.yml", yamlPaths[0])
	assert.Len(t, yamlPaths, 5)
	assert.Equal(t, filepath.Join(wd, "luaproto.toml"), tomlPaths[0])

	jsonPaths, _, _ = ConfigCandidatePaths("settings")
	assert.Equal(t, "settings", jsonPaths[0])
}

func TestEnsureDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "luaproto.toml")
	require.NoError(t, EnsureDir(path))
	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, "yaml", Ext("yml"))
	assert.Equal(t, "json", Ext(""))
}
