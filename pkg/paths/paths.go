// Package paths resolves the on-disk locations liboverride uses.
// It follows the XDG Base Directory layout.
package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// Environment variable names
const (
	// EnvConfigDir overrides the XDG config directory for liboverride
	EnvConfigDir = "LIBOVERRIDE_CONFIG_DIR"

	// EnvStateDir overrides the XDG state directory for liboverride
	EnvStateDir = "LIBOVERRIDE_STATE_DIR"

	// EnvFixturesDir is searched for scene fixtures given by bare name
	EnvFixturesDir = "LIBOVERRIDE_FIXTURES"
)

const (
	// AppDirName is the directory name used under every XDG root
	AppDirName = "liboverride"

	// ConfigFileName is the user config file name
	ConfigFileName = "config.toml"

	// LogFileName is the name of the log file
	LogFileName = "liboverride.log"

	// FixtureExt is the extension appended to bare fixture names
	FixtureExt = ".yaml"
)

// ConfigDir returns the user configuration directory.
func ConfigDir() string {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return ExpandHome(dir)
	}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppDirName)
	}
	return filepath.Join(xdg.ConfigHome, AppDirName)
}

// ConfigFile returns the path of the user config file. The file may not exist.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), ConfigFileName)
}

// StateDir returns the state directory, where logs go.
func StateDir() string {
	if dir := os.Getenv(EnvStateDir); dir != "" {
		return ExpandHome(dir)
	}
	// xdg caches the environment at init, tests change it afterwards
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, AppDirName)
	}
	return filepath.Join(xdg.StateHome, AppDirName)
}

// LogFile returns the path to the log file.
func LogFile() string {
	return filepath.Join(StateDir(), LogFileName)
}

// ResolveFixture turns a fixture argument into a path. Paths with a
// separator or an extension are returned as is; bare names are looked up
// in $LIBOVERRIDE_FIXTURES.
func ResolveFixture(arg string) string {
	arg = ExpandHome(arg)
	if strings.ContainsRune(arg, filepath.Separator) || filepath.Ext(arg) != "" {
		return arg
	}
	if dir := os.Getenv(EnvFixturesDir); dir != "" {
		return filepath.Join(ExpandHome(dir), arg+FixtureExt)
	}
	return arg + FixtureExt
}

// ExpandHome expands ~ to the user's home directory
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
