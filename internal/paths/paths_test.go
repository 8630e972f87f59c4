package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDirsLinux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only test")
	}
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name    string
		resolve func() (string, error)
		xdgVar  string
		xdgVal  string
		want    string
	}{
		{
			name:    "config honors XDG_CONFIG_HOME",
			resolve: DefaultConfigDir,
			xdgVar:  "XDG_CONFIG_HOME",
			xdgVal:  "/tmp/xdg-config",
			want:    "/tmp/xdg-config/tapestry",
		},
		{
			name:    "config falls back to ~/.config",
			resolve: DefaultConfigDir,
			xdgVar:  "XDG_CONFIG_HOME",
			want:    filepath.Join(home, ".config", "tapestry"),
		},
		{
			name:    "data honors XDG_DATA_HOME",
			resolve: DefaultDataDir,
			xdgVar:  "XDG_DATA_HOME",
			xdgVal:  "/tmp/xdg-data",
			want:    "/tmp/xdg-data/tapestry",
		},
		{
			name:    "data falls back to ~/.local/share",
			resolve: DefaultDataDir,
			xdgVar:  "XDG_DATA_HOME",
			want:    filepath.Join(home, ".local", "share", "tapestry"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.xdgVar, tt.xdgVal)
			got, err := tt.resolve()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultDirsDarwin(t *testing.T) {
	if runtime.GOOS != "darwin" {
		t.Skip("darwin-only test")
	}
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	appSupport := filepath.Join(home, "Library", "Application Support", "tapestry")

	got, err := DefaultConfigDir()
	require.NoError(t, err)
	assert.Equal(t, appSupport, got)

	got, err = DefaultDataDir()
	require.NoError(t, err)
	assert.Equal(t, appSupport, got)
}

func TestResolveConfigDir(t *testing.T) {
	tests := []struct {
		name    string
		flag    string
		envVal  string
		wantSub string
	}{
		{name: "flag wins over env", flag: "/explicit/config", envVal: "/env/config", wantSub: "/explicit/config"},
		{name: "env wins when flag empty", envVal: "/env/config", wantSub: "/env/config"},
		{name: "platform default when both empty", wantSub: "tapestry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigDir, tt.envVal)
			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Contains(t, got, tt.wantSub)
		})
	}
}

func TestResolveDataDir(t *testing.T) {
	tests := []struct {
		name      string
		flag      string
		configVal string
		envVal    string
		wantSub   string
	}{
		{name: "flag wins over all", flag: "/flag/data", configVal: "/config/data", envVal: "/env/data", wantSub: "/flag/data"},
		{name: "config value wins over env", configVal: "/config/data", envVal: "/env/data", wantSub: "/config/data"},
		{name: "env wins when flag and config empty", envVal: "/env/data", wantSub: "/env/data"},
		{name: "platform default when all empty", wantSub: "tapestry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDataDir, tt.envVal)
			got, err := ResolveDataDir(tt.flag, tt.configVal)
			require.NoError(t, err)
			assert.Contains(t, got, tt.wantSub)
		})
	}
}

func TestResolveRelativeOverridesBecomeAbsolute(t *testing.T) {
	t.Setenv(EnvConfigDir, "")
	t.Setenv(EnvDataDir, "")

	got, err := ResolveConfigDir("relative/config")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)

	got, err = ResolveDataDir("", "relative/data")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)
}
