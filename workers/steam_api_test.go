package workers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"league-orchestrator/models"
	"league-orchestrator/services"
)

func newSteamServer(t *testing.T) *SteamAPI {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key123", r.URL.Query().Get("key"))
		switch strings.TrimSuffix(r.URL.Path, "/") {
		case "/IDOTA2Match_570/GetMatchHistory/v1":
			assert.Equal(t, "77", r.URL.Query().Get("league_id"))
			_, _ = w.Write([]byte(`{"result": {"status": 1, "matches": [
				{"match_id": 500, "players": [
					{"account_id": 10, "player_slot": 0},
					{"account_id": 4294967295, "player_slot": 1},
					{"account_id": 20, "player_slot": 128},
					{"account_id": 0, "player_slot": 129}
				]}
			]}}`))
		case "/IDOTA2Match_570/GetMatchDetails/v1":
			switch r.URL.Query().Get("match_id") {
			case "500":
				_, _ = w.Write([]byte(`{"result": {"radiant_win": false}}`))
			case "501":
				_, _ = w.Write([]byte(`{"result": {"radiant_win": true}}`))
			default:
				_, _ = w.Write([]byte(`{"result": {"error": "Match ID not found"}}`))
			}
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	api := NewSteamAPI("key123")
	api.BaseURL = srv.URL
	return api
}

func TestLeagueMatches(t *testing.T) {
	api := newSteamServer(t)
	matches, err := api.LeagueMatches(context.Background(), 77)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, services.ExternalMatch{
		MatchID: 500,
		Seats: []services.Seat{
			{SteamID: 76561197960265738, Team: models.SideRadiant},
			{SteamID: 76561197960265748, Team: models.SideDire},
		},
	}, matches[0])
}

func TestMatchWinner(t *testing.T) {
	api := newSteamServer(t)
	ctx := context.Background()

	winner, err := api.MatchWinner(ctx, 500)
	require.NoError(t, err)
	assert.Equal(t, models.SideDire, winner)

	winner, err = api.MatchWinner(ctx, 501)
	require.NoError(t, err)
	assert.Equal(t, models.SideRadiant, winner)

	_, err = api.MatchWinner(ctx, 999)
	assert.Error(t, err)
}

func TestSteamAPIErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	api := NewSteamAPI("bad")
	api.BaseURL = srv.URL
	_, err := api.LeagueMatches(context.Background(), 1)
	assert.Error(t, err)
}
