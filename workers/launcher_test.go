package workers

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"league-orchestrator/services"
)

func TestHostArgs(t *testing.T) {
	args := HostArgs(services.HostSpec{
		GameID:       12,
		BotID:        3,
		LeagueID:     15000,
		GameMode:     16,
		LobbyTimeout: 5 * time.Minute,
	})
	assert.Equal(t, []string{
		"host",
		"--game", "12",
		"--bot", "3",
		"--league", "15000",
		"--game-mode", "16",
		"--lobby-timeout", "5m0s",
	}, args)
}

func TestProcessLauncherStartsAndKills(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}
	// sh -c 'sleep 5' league host --game ... : the host flags become positional args.
	l := &ProcessLauncher{Binary: "/bin/sh", ExtraArgs: []string{"-c", "sleep 5", "league"}, log: zerolog.Nop()}

	proc, err := l.Launch(context.Background(), services.HostSpec{GameID: 1, BotID: 1, LobbyTimeout: time.Minute})
	require.NoError(t, err)
	require.NoError(t, proc.Kill())
}

func TestProcessLauncherMissingBinary(t *testing.T) {
	l := &ProcessLauncher{Binary: "/nonexistent/league", log: zerolog.Nop()}
	_, err := l.Launch(context.Background(), services.HostSpec{GameID: 1})
	assert.Error(t, err)
}
