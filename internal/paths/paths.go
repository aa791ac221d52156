// Package paths resolves the configuration and data directories.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user platform directories.
const AppName = "plotbook"

// Directory names used relative to the working directory.
const (
	DefaultConfigDirName = ".plotbook"
	DefaultDataDirName   = ".plotbook-data"
)

// Environment variables overriding the directories.
const (
	EnvConfigDir = "PLOTBOOK_CONFIG_DIR"
	EnvDataDir   = "PLOTBOOK_DATA_DIR"
)

// platformDir holds the platform lookups; tests replace them.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// userDir returns $<xdgEnv>/plotbook on Linux, falling back to
// ~/<linuxFallback...>/plotbook. Other platforms use os.UserConfigDir.
func userDir(xdgEnv string, linuxFallback ...string) (string, error) {
	if runtime.GOOS != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
	if xdg := os.Getenv(xdgEnv); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	elems := append([]string{home}, linuxFallback...)
	return filepath.Join(append(elems, AppName)...), nil
}

// DefaultConfigDir returns the platform configuration directory:
//
//	Linux:   $XDG_CONFIG_HOME/plotbook (fallback ~/.config/plotbook)
//	macOS:   ~/Library/Application Support/plotbook
//	Windows: %APPDATA%/plotbook
func DefaultConfigDir() (string, error) {
	return userDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform data directory:
//
//	Linux:   $XDG_DATA_HOME/plotbook (fallback ~/.local/share/plotbook)
//	macOS and Windows: same as DefaultConfigDir
func DefaultDataDir() (string, error) {
	return userDir("XDG_DATA_HOME", ".local", "share")
}

// ResolveConfigDir applies flag > PLOTBOOK_CONFIG_DIR > DefaultConfigDir.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir applies flag > config file value > PLOTBOOK_DATA_DIR >
// ./.plotbook-data.
func ResolveDataDir(flag, configValue string) (string, error) {
	for _, dir := range []string{flag, configValue, os.Getenv(EnvDataDir)} {
		if dir != "" {
			return filepath.Abs(dir)
		}
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}
