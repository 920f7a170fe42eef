package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadSettingsFillsDefaults(t *testing.T) {
	path := writeFile(t, "league_settings.yaml", `
league_id: 15807
game_name_prefix: "Tuesday League"
lobby_size: 2
orchestrator_interval: 30s
skip_matches: [7100000001, 7100000002]
`)
	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, 15807, s.LeagueID)
	assert.Equal(t, "Tuesday League", s.GameNamePrefix)
	assert.Equal(t, "Tuesday League", s.Name())
	assert.Equal(t, 2, s.LobbySize)
	assert.Equal(t, 30*time.Second, s.OrchestratorInterval)
	assert.Equal(t, []int64{7100000001, 7100000002}, s.SkipMatches)

	assert.Equal(t, 16, s.GameMode)
	assert.Equal(t, 1000, s.StartingMMR)
	assert.Equal(t, 5*time.Minute, s.LobbyTimeout())
	assert.Equal(t, 5*time.Second, s.TimeoutPollInterval)
	assert.Equal(t, 15*time.Second, s.CancelPollInterval)
}

func TestLoadSettingsMissingFile(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
}

func TestLoadSettingsRejectsOddLobby(t *testing.T) {
	path := writeFile(t, "league_settings.yaml", "lobby_size: 7\n")
	_, err := LoadSettings(path)
	assert.Error(t, err)
}

func TestLoadEnvFromFile(t *testing.T) {
	for _, k := range []string{"DATABASE_URL", "SERVICE_TOKEN", "LISTEN_ADDR", "R2_BUCKET_NAME"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	path := writeFile(t, ".env", "DATABASE_URL=postgres://league@localhost/league\nSERVICE_TOKEN=secret\nR2_BUCKET_NAME=archives\n")

	env, err := LoadEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://league@localhost/league", env.DatabaseURL)
	assert.Equal(t, "secret", env.ServiceToken)
	assert.Equal(t, DefaultListenAddr, env.ListenAddr)
	assert.Equal(t, "archives", env.R2.Bucket)
	assert.False(t, env.R2.Enabled())
}

func TestLoadPicksDevFiles(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	require.NoError(t, os.WriteFile(DevSettingsFile, []byte("lobby_size: 4\n"), 0o600))
	require.NoError(t, os.WriteFile(DefaultSettingsFile, []byte("lobby_size: 10\n"), 0o600))

	cfg, err := Load(Options{Dev: true})
	require.NoError(t, err)
	assert.True(t, cfg.Dev)
	assert.Equal(t, 4, cfg.Settings.LobbySize)

	cfg, err = Load(Options{})
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Settings.LobbySize)
}
