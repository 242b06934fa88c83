package am

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	assert.Equal(t, "", v.GetString("workspace.dir"))
	assert.Equal(t, 5000, v.GetInt("database.busy_timeout_ms"))
	assert.False(t, v.GetBool("logging.json"))
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)

	content := `
[workspace]
dir = "/srv/worlds"

[database]
busy_timeout_ms = 2500

[logging]
json = true
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := LoadFromFile(configPath)
	require.NoError(t, err)

	assert.Equal(t, "/srv/worlds", cfg.Workspace.Dir)
	assert.Equal(t, "/srv/worlds", cfg.WorkspaceDir())
	assert.Equal(t, 2500, cfg.Database.BusyTimeoutMS)
	assert.True(t, cfg.Logging.JSON)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestWorkspaceDirFallback(t *testing.T) {
	cfg := &Config{}
	dir := cfg.WorkspaceDir()

	require.NotEmpty(t, dir)
	assert.Equal(t, "worlds", filepath.Base(dir))
	assert.Contains(t, dir, ".lorekeep")
}

func TestSplitKey(t *testing.T) {
	tests := []struct {
		key     string
		section string
		field   string
		ok      bool
	}{
		{"workspace.dir", "workspace", "dir", true},
		{"database.busy_timeout_ms", "database", "busy_timeout_ms", true},
		{"logging.json", "logging", "json", true},
		{"noseparator", "", "", false},
		{".leading", "", "leading", false},
		{"trailing.", "trailing", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			section, field, ok := splitKey(tt.key)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.section, section)
				assert.Equal(t, tt.field, field)
			}
		})
	}
}

func TestCreateBackupRotation(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)

	require.NoError(t, os.WriteFile(configPath, []byte("gen = 1"), 0644))
	require.NoError(t, createBackup(configPath))

	back1, err := os.ReadFile(configPath + ".back1")
	require.NoError(t, err)
	assert.Equal(t, "gen = 1", string(back1))

	// Second backup rotates the first out of .back1
	require.NoError(t, os.WriteFile(configPath, []byte("gen = 2"), 0644))
	require.NoError(t, createBackup(configPath))

	back1, err = os.ReadFile(configPath + ".back1")
	require.NoError(t, err)
	assert.Equal(t, "gen = 2", string(back1))

	back2, err := os.ReadFile(configPath + ".back2")
	require.NoError(t, err)
	assert.Equal(t, "gen = 1", string(back2))
}

func TestCreateBackupMissingFile(t *testing.T) {
	// Backing up a file that doesn't exist is a no-op
	assert.NoError(t, createBackup(filepath.Join(t.TempDir(), "absent.toml")))
}

func newTestWatcher(t *testing.T) (*ConfigWatcher, string, chan *Config) {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(configPath, []byte("[logging]\njson = false\n"), 0644))

	cw, err := NewConfigWatcher(configPath)
	require.NoError(t, err)
	t.Cleanup(func() { cw.Stop() })
	cw.debouncePeriod = 50 * time.Millisecond

	reloads := make(chan *Config, 4)
	cw.OnReload(func(cfg *Config) error {
		reloads <- cfg
		return nil
	})
	cw.Start()
	return cw, configPath, reloads
}

func TestConfigWatcherReloadsOnExternalWrite(t *testing.T) {
	_, configPath, reloads := newTestWatcher(t)

	require.NoError(t, os.WriteFile(configPath, []byte("[logging]\njson = true\n"), 0644))

	select {
	case cfg := <-reloads:
		require.NotNil(t, cfg)
	case <-time.After(3 * time.Second):
		t.Fatal("expected a reload after an external config write")
	}
}

func TestConfigWatcherDebouncesRapidWrites(t *testing.T) {
	_, configPath, reloads := newTestWatcher(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(configPath, []byte("[logging]\njson = true\n"), 0644))
	}

	select {
	case <-reloads:
	case <-time.After(3 * time.Second):
		t.Fatal("expected a reload after rapid writes")
	}

	// The burst collapses into a single reload
	select {
	case <-reloads:
		t.Fatal("rapid writes must coalesce into one reload")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestConfigWatcherSkipsOwnWrite(t *testing.T) {
	cw, configPath, reloads := newTestWatcher(t)

	cw.MarkOwnWrite()
	require.NoError(t, os.WriteFile(configPath, []byte("[logging]\njson = true\n"), 0644))

	select {
	case <-reloads:
		t.Fatal("a marked own write must not trigger a reload")
	case <-time.After(500 * time.Millisecond):
	}

	// The flag is one-shot: the next external write reloads as usual
	require.NoError(t, os.WriteFile(configPath, []byte("[logging]\njson = false\n"), 0644))

	select {
	case <-reloads:
	case <-time.After(3 * time.Second):
		t.Fatal("expected a reload after the own-write flag was consumed")
	}
}

func TestIsBackupFile(t *testing.T) {
	assert.True(t, isBackupFile("/home/u/.lorekeep/lorekeep.toml.back1"))
	assert.True(t, isBackupFile("lorekeep.toml.back3"))
	assert.False(t, isBackupFile("lorekeep.toml"))
	assert.False(t, isBackupFile("other.toml"))
}
