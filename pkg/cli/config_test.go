package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserConfig_ActiveProfile(t *testing.T) {
	cfg := &UserConfig{
		CurrentProfile: "default",
		Profiles: map[string]Profile{
			"default": {Output: "text", Keyword: "id"},
			"nightly": {Output: "json", Ignore: "updated_at"},
		},
	}

	tests := []struct {
		name        string
		override    string
		wantOutput  string
		wantErr     string
		currentName string
	}{
		{name: "uses current profile", wantOutput: "text"},
		{name: "override to nightly", override: "nightly", wantOutput: "json"},
		{name: "nonexistent override", override: "nonexistent", wantErr: `profile "nonexistent" not found`},
		{name: "missing current profile is empty", currentName: "gone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *cfg
			if tt.currentName != "" {
				c.CurrentProfile = tt.currentName
			}
			p, err := c.ActiveProfile(tt.override)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOutput, p.Output)
		})
	}
}

func TestProfile_SetGet(t *testing.T) {
	var p Profile

	require.NoError(t, p.Set("output", "json"))
	require.NoError(t, p.Set("keyword", "code"))
	require.NoError(t, p.Set("ignore", "updated_at, etl_batch"))
	require.NoError(t, p.Set("page-size", "25"))
	require.NoError(t, p.Set("color", "never"))
	require.NoError(t, p.Set("log-level", "debug"))
	assert.Equal(t, Profile{
		Output: "json", Keyword: "code", Ignore: "updated_at, etl_batch",
		PageSize: 25, Color: "never", LogLevel: "debug",
	}, p)

	for key, want := range map[string]string{
		"output": "json", "keyword": "code", "page-size": "25", "color": "never",
	} {
		got, err := p.Get(key)
		require.NoError(t, err, key)
		assert.Equal(t, want, got, key)
	}

	require.NoError(t, p.Set("page-size", ""))
	got, err := p.Get("page-size")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestProfile_SetInvalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"output", "yaml"},
		{"page-size", "0"},
		{"page-size", "many"},
		{"color", "sometimes"},
		{"host", "x"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			var p Profile
			assert.Error(t, p.Set(tt.key, tt.value))
		})
	}

	_, err := Profile{}.Get("host")
	assert.ErrorContains(t, err, `unknown profile key "host"`)
}

func TestSaveAndLoadUserConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	cfg := &UserConfig{
		CurrentProfile: "nightly",
		Profiles: map[string]Profile{
			"nightly": {Output: "json", PageSize: 100},
		},
	}
	require.NoError(t, SaveUserConfig(cfg))

	info, err := os.Stat(filepath.Join(dir, ".recdiff", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadUserConfig()
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
	assert.Equal(t, []string{"nightly"}, loaded.ProfileNames())
}

func TestLoadUserConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".recdiff"), 0o700))
	require.NoError(t, os.WriteFile(ConfigPath(), []byte("profiles:\n"), 0o600))

	cfg, err := LoadUserConfig()
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.CurrentProfile)
	assert.NotNil(t, cfg.Profiles)
}

func TestLoadUserConfig_Missing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, err := LoadUserConfig()
	assert.Error(t, err)
}
