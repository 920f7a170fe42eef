package services

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"league-orchestrator/memstore"
	"league-orchestrator/models"
)

var _ Store = (*memstore.Store)(nil)

type fixture struct {
	ctx     context.Context
	store   *memstore.Store
	ratings *RatingEngine
	games   *GameService
	players *PlayerService
	bots    *BotPool
	steamID int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := memstore.New()
	log := zerolog.Nop()
	ratings := NewRatingEngine(s, 1000, log)
	return &fixture{
		ctx:     context.Background(),
		store:   s,
		ratings: ratings,
		games:   NewGameService(s, ratings, "Inhouse", log),
		players: NewPlayerService(s, 1000, log),
		bots:    NewBotPool(s, log),
	}
}

func (f *fixture) player(t *testing.T, discordID string, mmr int) models.Player {
	t.Helper()
	f.steamID++
	p := models.Player{DiscordID: discordID, SteamID: 76561198000000000 + f.steamID, MMR: mmr}
	require.NoError(t, f.store.CreatePlayer(f.ctx, &p))
	return p
}

// seedPlayers vouches n players named prefix1..prefixN, all at mmr.
func (f *fixture) seedPlayers(t *testing.T, prefix string, n, mmr int) []models.Player {
	t.Helper()
	out := make([]models.Player, n)
	for i := range out {
		out[i] = f.player(t, fmt.Sprintf("%s%d", prefix, i+1), mmr)
	}
	return out
}

func (f *fixture) game(t *testing.T, radiant, dire []models.Player, status models.GameStatus) models.Game {
	t.Helper()
	var teams [2][]uint
	for _, p := range radiant {
		teams[models.SideRadiant] = append(teams[models.SideRadiant], p.ID)
	}
	for _, p := range dire {
		teams[models.SideDire] = append(teams[models.SideDire], p.ID)
	}
	g, _, err := f.games.Create(f.ctx, models.GameTypeNormal, teams)
	require.NoError(t, err)
	if status != models.StatusPregame {
		f.store.SetStatus(g.ID, status)
		g.Status = status
	}
	return g
}

func (f *fixture) status(t *testing.T, id uint) models.GameStatus {
	t.Helper()
	g, err := f.store.Game(f.ctx, id)
	require.NoError(t, err)
	return g.Status
}

func (f *fixture) mmr(t *testing.T, id uint) int {
	t.Helper()
	p, ok := f.store.Player(id)
	require.True(t, ok)
	return p.MMR
}

func seededRand() *rand.Rand {
	return rand.New(rand.NewSource(42))
}
