package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateDir(t *testing.T) {
	t.Run("explicit override wins", func(t *testing.T) {
		t.Setenv(EnvStateDir, "/tmp/lo-state")
		t.Setenv("XDG_STATE_HOME", "/tmp/xdg-state")
		assert.Equal(t, "/tmp/lo-state", StateDir())
	})

	t.Run("xdg state home", func(t *testing.T) {
		t.Setenv(EnvStateDir, "")
		t.Setenv("XDG_STATE_HOME", "/tmp/xdg-state")
		assert.Equal(t, filepath.Join("/tmp/xdg-state", AppDirName), StateDir())
		assert.Equal(t, filepath.Join("/tmp/xdg-state", AppDirName, LogFileName), LogFile())
	})
}

func TestConfigFile(t *testing.T) {
	t.Setenv(EnvConfigDir, "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	assert.Equal(t, filepath.Join("/tmp/xdg-config", AppDirName, ConfigFileName), ConfigFile())
}

func TestResolveFixture(t *testing.T) {
	t.Setenv(EnvFixturesDir, "/fixtures")

	tests := []struct {
		name string
		arg  string
		want string
	}{
		{"bare name", "rig", "/fixtures/rig.yaml"},
		{"with extension", "rig.yml", "rig.yml"},
		{"relative path", "testdata/rig.yaml", "testdata/rig.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveFixture(tt.arg))
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	assert.Equal(t, home, ExpandHome("~"))
	assert.Equal(t, filepath.Join(home, "x"), ExpandHome("~/x"))
	assert.Equal(t, "/abs", ExpandHome("/abs"))
	assert.Equal(t, "", ExpandHome(""))
}
