package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"league-orchestrator/models"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRegisterSkipsKnownBots(t *testing.T) {
	f := newFixture(t)
	path := writeFile(t, "steam_bot_acc.json", `[
		{"username": "bot1", "password": "a"},
		{"username": "bot2", "password": "b"},
		{"username": "bot1", "password": "c"}
	]`)

	n, err := f.bots.Register(f.ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = f.bots.Register(f.ctx, path)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRegisterRejectsBadFiles(t *testing.T) {
	f := newFixture(t)
	_, err := f.bots.Register(f.ctx, writeFile(t, "empty.json", `[]`))
	assert.Error(t, err)
	_, err = f.bots.Register(f.ctx, writeFile(t, "nameless.json", `[{"password": "x"}]`))
	assert.Error(t, err)
	_, err = f.bots.Register(f.ctx, filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestClaimAndRelease(t *testing.T) {
	f := newFixture(t)
	f.bot(t, "bot1")

	bot, err := f.bots.Claim(f.ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "bot1", bot.Username)
	assert.Equal(t, models.BotReserved, bot.Status)

	_, err = f.bots.Claim(f.ctx, 8)
	assert.ErrorIs(t, err, ErrResourceExhausted)
	_, err = f.bots.GetFree(f.ctx)
	assert.ErrorIs(t, err, ErrResourceExhausted)

	require.NoError(t, f.bots.Release(f.ctx, "bot1"))
	require.NoError(t, f.bots.Release(f.ctx, "bot1"))

	free, err := f.bots.GetFree(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, models.BotFree, free.Status)
}

func TestReserveSpecificBot(t *testing.T) {
	f := newFixture(t)
	b := f.bot(t, "bot1")

	require.NoError(t, f.bots.Reserve(f.ctx, b.ID, 3))
	assert.ErrorIs(t, f.bots.Reserve(f.ctx, b.ID, 4), ErrResourceExhausted)
}
