package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"league-orchestrator/models"
	"league-orchestrator/store"
)

func draftPlayers(n int) []DraftPlayer {
	out := make([]DraftPlayer, n)
	for i := range out {
		out[i] = DraftPlayer{ID: uint(i + 1), DiscordID: fmt.Sprintf("d%d", i+1), MMR: 2000 - 10*i}
	}
	return out
}

func drafterIDs(d *Draft) []uint {
	return []uint{d.drafters[0].ID, d.drafters[1].ID}
}

func TestNewDraftPicksTopTwoWithoutCaptains(t *testing.T) {
	d, err := NewDraft(draftPlayers(10), seededRand())
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{1, 2}, drafterIDs(d))
	assert.Len(t, d.pool, 8)
	assert.Len(t, d.teams[models.SideRadiant], 1)
	assert.Len(t, d.teams[models.SideDire], 1)
}

func TestNewDraftSingleCaptainFacesBestOtherWhoPicksFirst(t *testing.T) {
	players := draftPlayers(10)
	players[6].Captain = true // id 7

	d, err := NewDraft(players, seededRand())
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{7, 1}, drafterIDs(d))
	assert.Equal(t, uint(1), d.Current().ID)
}

func TestNewDraftPrefersTopCaptains(t *testing.T) {
	players := draftPlayers(10)
	for _, i := range []int{3, 5, 8} {
		players[i].Captain = true
	}
	d, err := NewDraft(players, seededRand())
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{4, 6}, drafterIDs(d))
}

func TestNewDraftNeedsAnEvenLobby(t *testing.T) {
	_, err := NewDraft(draftPlayers(5), seededRand())
	assert.Error(t, err)
}

func TestDraftFollowsSnakeOrder(t *testing.T) {
	d, err := NewDraft(draftPlayers(10), seededRand())
	require.NoError(t, err)

	a := d.Turn()
	b := a.Other()
	want := []models.Side{a, b, b, a, a, b, b, a}

	var got []models.Side
	for !d.Done() {
		got = append(got, d.Turn())
		done, err := d.Pick(d.Current().DiscordID, d.pool[0].ID)
		require.NoError(t, err)
		assert.Equal(t, d.Done(), done)
	}
	assert.Equal(t, want, got)
	assert.Equal(t, 8, d.Picks())

	rosters := d.Rosters()
	assert.Len(t, rosters[0], 5)
	assert.Len(t, rosters[1], 5)
}

func TestDraftOutOfTurn(t *testing.T) {
	d, err := NewDraft(draftPlayers(10), seededRand())
	require.NoError(t, err)
	current := d.Current()
	other := d.drafters[d.Turn().Other()]

	_, err = d.Pick(other.DiscordID, d.pool[0].ID)
	require.ErrorIs(t, err, ErrOutOfTurn)
	var turn *TurnError
	require.ErrorAs(t, err, &turn)
	assert.Equal(t, current.DiscordID, turn.Expected)
	assert.Equal(t, fmt.Sprintf("it is <@%s>'s turn to pick", current.DiscordID), err.Error())
	assert.Zero(t, d.Picks())
}

func TestDraftRejectsPlayersOutsideThePool(t *testing.T) {
	d, err := NewDraft(draftPlayers(4), seededRand())
	require.NoError(t, err)
	_, err = d.Pick(d.Current().DiscordID, d.Current().ID)
	assert.ErrorIs(t, err, ErrRejected)
	_, err = d.Pick(d.Current().DiscordID, 99)
	assert.ErrorIs(t, err, ErrRejected)
}

func TestDraftCompleteRejectsPicks(t *testing.T) {
	d, err := NewDraft(draftPlayers(4), seededRand())
	require.NoError(t, err)
	for !d.Done() {
		_, err := d.Pick(d.Current().DiscordID, d.pool[0].ID)
		require.NoError(t, err)
	}
	_, err = d.Pick(d.Current().DiscordID, 1)
	reason, ok := RejectionReason(err)
	require.True(t, ok)
	assert.Equal(t, "the draft is already complete", reason)
}

func TestDraftHandoff(t *testing.T) {
	d, err := NewDraft(draftPlayers(10), seededRand())
	require.NoError(t, err)

	// Nobody to hand off to before the first pick.
	assert.False(t, d.HandoffAvailable())
	assert.ErrorIs(t, d.ToggleHandoff(d.Current().DiscordID), ErrRejected)

	// A picks once, then it is B's turn twice.
	_, err = d.Pick(d.Current().DiscordID, d.pool[0].ID)
	require.NoError(t, err)
	_, err = d.Pick(d.Current().DiscordID, d.pool[0].ID)
	require.NoError(t, err)

	side := d.Turn()
	captain := d.Current()
	require.True(t, d.HandoffAvailable())
	require.NoError(t, d.ToggleHandoff(captain.DiscordID))

	targets := d.Targets()
	require.Len(t, targets, 1)
	teammate := targets[0]
	assert.NotEqual(t, captain.ID, teammate.ID)

	// Toggling twice cancels.
	require.NoError(t, d.ToggleHandoff(captain.DiscordID))
	assert.Len(t, d.Targets(), len(d.pool))
	require.NoError(t, d.ToggleHandoff(captain.DiscordID))

	picks := d.Picks()
	done, err := d.Pick(captain.DiscordID, teammate.ID)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, picks, d.Picks(), "a handoff does not use up a pick")
	assert.Equal(t, side, d.Turn())
	assert.Equal(t, teammate.ID, d.Current().ID)

	_, err = d.Pick(captain.DiscordID, d.pool[0].ID)
	assert.ErrorIs(t, err, ErrOutOfTurn)
	_, err = d.Pick(teammate.DiscordID, d.pool[0].ID)
	require.NoError(t, err)
	assert.Len(t, d.teams[side], 3)
}

func TestDraftServiceCreatesGameWhenComplete(t *testing.T) {
	f := newFixture(t)
	players := f.seedPlayers(t, "p", 4, 1000)
	svc := NewDraftService(f.games, seededRand(), f.games.log)

	snap, err := svc.Start(players)
	require.NoError(t, err)
	require.NotEmpty(t, snap.ID)
	assert.Equal(t, []string{snap.ID}, svc.Active())

	for !snap.Done {
		snap, err = svc.Pick(f.ctx, snap.ID, snap.Drafter.DiscordID, snap.Pool[0].ID)
		require.NoError(t, err)
	}
	require.NotZero(t, snap.GameID)

	g, err := f.store.Game(f.ctx, snap.GameID)
	require.NoError(t, err)
	assert.Equal(t, models.GameTypeDraft, g.Type)
	assert.Equal(t, models.StatusPregame, g.Status)
	roster, err := f.store.Roster(f.ctx, g.ID)
	require.NoError(t, err)
	assert.Len(t, roster, 4)

	_, err = svc.Snapshot(snap.ID)
	assert.ErrorIs(t, err, ErrRejected)
	assert.Empty(t, svc.Active())
}

type flakyCreator struct {
	next  GameCreator
	fails int
	calls int
}

func (c *flakyCreator) Create(ctx context.Context, typ models.GameType, teams [2][]uint) (models.Game, models.GameArgs, error) {
	c.calls++
	if c.calls <= c.fails {
		return models.Game{}, models.GameArgs{}, store.ErrStoreBusy
	}
	return c.next.Create(ctx, typ, teams)
}

func TestDraftServiceRetriesFailedGameCreation(t *testing.T) {
	f := newFixture(t)
	players := f.seedPlayers(t, "p", 4, 1000)
	creator := &flakyCreator{next: f.games, fails: 2}
	svc := NewDraftService(creator, seededRand(), f.games.log)

	snap, err := svc.Start(players)
	require.NoError(t, err)
	id := snap.ID
	for len(snap.Pool) > 1 {
		snap, err = svc.Pick(f.ctx, id, snap.Drafter.DiscordID, snap.Pool[0].ID)
		require.NoError(t, err)
	}

	snap, err = svc.Pick(f.ctx, id, snap.Drafter.DiscordID, snap.Pool[0].ID)
	assert.ErrorIs(t, err, store.ErrStoreBusy)
	assert.True(t, snap.Done)
	assert.Zero(t, snap.GameID)
	assert.Equal(t, []string{id}, svc.Active())

	// Another pick on the finished draft retries the creation.
	_, err = svc.Pick(f.ctx, id, "anyone", 0)
	assert.ErrorIs(t, err, store.ErrStoreBusy)
	assert.Equal(t, 2, creator.calls)

	snap, err = svc.Finish(f.ctx, id)
	require.NoError(t, err)
	require.NotZero(t, snap.GameID)
	assert.Equal(t, 3, creator.calls)
	assert.Empty(t, svc.Active())

	roster, err := f.store.Roster(f.ctx, snap.GameID)
	require.NoError(t, err)
	assert.Len(t, roster, 4)
}

func TestDraftServiceFinishRejectsOpenDraft(t *testing.T) {
	f := newFixture(t)
	svc := NewDraftService(f.games, seededRand(), f.games.log)
	snap, err := svc.Start(f.seedPlayers(t, "p", 4, 1000))
	require.NoError(t, err)

	_, err = svc.Finish(f.ctx, snap.ID)
	reason, ok := RejectionReason(err)
	require.True(t, ok)
	assert.Equal(t, "the draft still has 2 players to pick", reason)
}
