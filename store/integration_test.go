package store

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"league-orchestrator/models"
)

// openTestStore connects to a disposable database. Every table is wiped.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("LEAGUE_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("LEAGUE_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	for _, table := range []string{"game_players", "game_args", "games", "player_roles", "players", "steam_bots"} {
		require.NoError(t, s.DB().Exec("DELETE FROM "+table).Error)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestClaimFreeBotIsExclusive(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddBot(ctx, &models.SteamBot{Username: "bot1", Password: "pw"}))

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = s.ClaimFreeBot(ctx, uint(i+1))
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range results {
		if err == nil {
			won++
		} else {
			assert.ErrorIs(t, err, ErrNotFound)
		}
	}
	assert.Equal(t, 1, won)

	require.NoError(t, s.ReleaseBot(ctx, "bot1"))
	assert.ErrorIs(t, s.ReleaseBot(ctx, "bot1"), ErrNoRowsModified)
}

func TestGameLifecycleAgainstPostgres(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := &models.Player{DiscordID: "a", SteamID: 1, MMR: 1000}
	b := &models.Player{DiscordID: "b", SteamID: 2, MMR: 1000}
	require.NoError(t, s.CreatePlayer(ctx, a))
	require.NoError(t, s.CreatePlayer(ctx, b))

	game := &models.Game{Status: models.StatusPregame, Type: models.GameTypeNormal}
	args, err := s.CreateGame(ctx, game, func(id uint) models.GameArgs {
		return models.GameArgs{LobbyName: "League #1", LobbyPassword: "ABCDEFGH"}
	}, []models.GamePlayer{
		{PlayerID: a.ID, Team: models.SideRadiant},
		{PlayerID: b.ID, Team: models.SideDire},
	})
	require.NoError(t, err)
	assert.Equal(t, game.ID, args.GameID)

	roster, err := s.Roster(ctx, game.ID)
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, "a", roster[0].DiscordID)
	assert.Equal(t, 1000, roster[0].MMR)

	_, err = s.ArrivedPlayers(ctx, game.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.UpdateGameStatus(ctx, game.ID, models.StatusPregame, models.StatusHosted))
	assert.ErrorIs(t, s.UpdateGameStatus(ctx, game.ID, models.StatusPregame, models.StatusHosted), ErrNoRowsModified)
	assert.ErrorIs(t, s.ScoreGame(ctx, game.ID, models.SideRadiant, 77), ErrNoRowsModified)

	require.NoError(t, s.UpdateGameStatus(ctx, game.ID, models.StatusHosted, models.StatusStarted))
	require.NoError(t, s.ScoreGame(ctx, game.ID, models.SideRadiant, 77))
	require.NoError(t, s.AdjustRatings(ctx, []uint{a.ID}, 25))
	require.NoError(t, s.AdjustRatings(ctx, []uint{b.ID}, -25))

	rec, err := s.PlayerRecord(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PlayerRecord{Played: 1, Wins: 1, Losses: 0, Rank: 1}, rec)

	board, err := s.Leaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, models.Standing{DiscordID: "a", MMR: 1025}, board[0])

	ids, err := s.ScoredMatchIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{77}, ids)

	assert.ErrorIs(t, s.DeleteRoles(ctx, a.ID), ErrNoRowsModified)
	require.NoError(t, s.AddRole(ctx, a.ID, 3))
	require.NoError(t, s.AddRole(ctx, a.ID, 1))
	roles, err := s.Roles(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, roles)

	snap, err := s.ExportHistory(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Games, 1)
	assert.Len(t, snap.GamePlayers, 2)

	require.NoError(t, s.ResetLeague(ctx, 1000))
	_, err = s.Game(ctx, game.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	p, err := s.PlayerByDiscordID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1000, p.MMR)
}
