package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "modsh"

// Paths contains the standard modsh directories.
type Paths struct {
	Config string // ~/.config/modsh
	Data   string // ~/.local/share/modsh
	State  string // ~/.local/state/modsh
}

// GetPaths returns the XDG directories of modsh.
func GetPaths() *Paths {
	return &Paths{
		Config: filepath.Join(envOr("XDG_CONFIG_HOME", homeDir(".config")), appName),
		Data:   filepath.Join(envOr("XDG_DATA_HOME", homeDir(".local", "share")), appName),
		State:  filepath.Join(envOr("XDG_STATE_HOME", homeDir(".local", "state")), appName),
	}
}

// GlobalConfigPath is the per-user config file.
func GlobalConfigPath() string {
	return filepath.Join(GetPaths().Config, appName+".jsonc")
}

// ProjectConfigPath is the config file of a project directory.
func ProjectConfigPath(directory string) string {
	return filepath.Join(directory, "."+appName+".jsonc")
}

// DefaultGoPath mirrors the go command: $GOPATH, else ~/go.
func DefaultGoPath() string {
	if gp := os.Getenv("GOPATH"); gp != "" {
		return filepath.SplitList(gp)[0]
	}
	return homeDir("go")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func homeDir(elem ...string) string {
	home := os.Getenv("HOME")
	if runtime.GOOS == "windows" {
		home = os.Getenv("USERPROFILE")
	}
	return filepath.Join(append([]string{home}, elem...)...)
}
