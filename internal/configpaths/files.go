package configpaths

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

const baseName = "luaproto"

// DefaultConfigDir returns the platform-specific configuration directory.
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if appdata := os.Getenv("AppData"); appdata != "" {
			return filepath.Join(appdata, "luaproto"), nil
		}
		return "", errors.New("AppData not set")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "luaproto"), nil
		}
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, ".config", "luaproto"), nil
		}
		return "", errors.New("HOME not set")
	}
}

// Ext maps a format name onto its file extension.
func Ext(format string) string {
	switch format {
	case "yaml", "yml":
		return "yaml"
	case "toml":
		return "toml"
	default:
		return "json"
	}
}

// EnsureDir ensures the directory for a given file path exists.
func EnsureDir(filePath string) error {
	return os.MkdirAll(filepath.Dir(filePath), 0o755)
}

// ConfigCandidatePaths builds candidate paths for config files per format.
// userPath comes first and is routed to a loader by its extension, then
// ./luaproto.* and finally the user config directory.
func ConfigCandidatePaths(userPath string) (jsonPaths, yamlPaths, tomlPaths []string) {
	add := func(slice *[]string, p string) { *slice = append(*slice, p) }

	if userPath != "" {
		switch filepath.Ext(userPath) {
		case ".yaml", ".yml":
			add(&yamlPaths, userPath)
		case ".toml":
			add(&tomlPaths, userPath)
		default:
			add(&jsonPaths, userPath)
		}
	}

	dirs := []string{}
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	if dir, err := DefaultConfigDir(); err == nil {
		dirs = append(dirs, dir)
	}
	for _, dir := range dirs {
		add(&jsonPaths, filepath.Join(dir, baseName+".json"))
		add(&yamlPaths, filepath.Join(dir, baseName+".yaml"))
		add(&yamlPaths, filepath.Join(dir, baseName+".yml"))
		add(&tomlPaths, filepath.Join(dir, baseName+".toml"))
	}
	return
}
