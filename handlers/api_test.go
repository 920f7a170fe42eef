package handlers

import (
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"league-orchestrator/memstore"
	"league-orchestrator/models"
	"league-orchestrator/services"
)

const token = "secret"

type apiFixture struct {
	app     *fiber.App
	store   *memstore.Store
	steamID int64
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	s := memstore.New()
	log := zerolog.Nop()
	ratings := services.NewRatingEngine(s, 1000, log)
	games := services.NewGameService(s, ratings, "Inhouse", log)
	drafts := services.NewDraftService(games, rand.New(rand.NewSource(1)), log)
	api := &API{
		Players: services.NewPlayerService(s, 1000, log),
		Games:   games,
		Matchmaker: services.NewMatchmaker(
			services.NewMemoryQueue(), services.NewMemoryQueue(),
			s, games, drafts, services.NewBalancer(rand.New(rand.NewSource(2))), 4, log,
		),
		Drafts:  drafts,
		Ratings: ratings,
		Log:     log,
	}
	return &apiFixture{app: NewApp(api, AppConfig{ServiceToken: token}), store: s}
}

func (f *apiFixture) seed(t *testing.T, discordID string, mmr int) models.Player {
	t.Helper()
	f.steamID++
	p := models.Player{DiscordID: discordID, SteamID: 76561198000000000 + f.steamID, MMR: mmr}
	require.NoError(t, f.store.CreatePlayer(context.Background(), &p))
	return p
}

type call struct {
	method, path, body string
	player             string
	admin              bool
	noToken            bool
}

func (f *apiFixture) do(t *testing.T, c call) (int, map[string]interface{}) {
	t.Helper()
	var body io.Reader
	if c.body != "" {
		body = strings.NewReader(c.body)
	}
	req := httptest.NewRequest(c.method, c.path, body)
	req.Header.Set("Content-Type", "application/json")
	if !c.noToken {
		req.Header.Set("X-Service-Token", token)
	}
	if c.player != "" {
		req.Header.Set("X-Discord-ID", c.player)
	}
	if c.admin {
		req.Header.Set("X-Discord-Roles", "admin")
	}
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestServiceTokenRequired(t *testing.T) {
	f := newAPI(t)
	code, _ := f.do(t, call{method: http.MethodGet, path: "/leaderboard", noToken: true})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := f.do(t, call{method: http.MethodGet, path: "/leaderboard"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []interface{}{}, body["standings"])
}

func TestVouch(t *testing.T) {
	f := newAPI(t)
	vouch := call{method: http.MethodPost, path: "/players", body: `{"discord_id": "42", "steam_id": 76561198000000001}`, player: "mod"}

	code, _ := f.do(t, vouch)
	assert.Equal(t, http.StatusForbidden, code)

	vouch.admin = true
	code, body := f.do(t, vouch)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "42", body["discord_id"])
	assert.EqualValues(t, 1000, body["mmr"])

	code, body = f.do(t, vouch)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "<@42> is already vouched", body["error"])
}

func TestSetRoles(t *testing.T) {
	f := newAPI(t)
	f.seed(t, "42", 1000)

	code, _ := f.do(t, call{method: http.MethodPut, path: "/players/me/roles", body: `{"roles": "13"}`})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := f.do(t, call{method: http.MethodPut, path: "/players/me/roles", body: `{"roles": "13"}`, player: "42"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []interface{}{float64(1), float64(3)}, body["roles"])

	code, body = f.do(t, call{method: http.MethodPut, path: "/players/me/roles", body: `{"roles": "0"}`, player: "42"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []interface{}{}, body["roles"])
}

func TestJoinAndLeaveQueue(t *testing.T) {
	f := newAPI(t)

	code, body := f.do(t, call{method: http.MethodPost, path: "/queues/normal/join", player: "42"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "<@42> is not vouched", body["error"])

	f.seed(t, "42", 1000)
	code, body = f.do(t, call{method: http.MethodPost, path: "/queues/normal/join", player: "42"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "normal", body["queued"])
	assert.Nil(t, body["match"])

	code, body = f.do(t, call{method: http.MethodGet, path: "/queues"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []interface{}{"42"}, body["normal"])
	assert.Equal(t, []interface{}{}, body["draft"])

	code, _ = f.do(t, call{method: http.MethodPost, path: "/queues/ranked/join", player: "42"})
	assert.Equal(t, http.StatusConflict, code)

	code, body = f.do(t, call{method: http.MethodDelete, path: "/queues", player: "42"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []interface{}{"normal"}, body["left"])
}

func TestQueueKeepsEveryJoiningPlayer(t *testing.T) {
	f := newAPI(t)
	first, second := "111111111111111111", "222222222222222222"
	f.seed(t, first, 1000)
	f.seed(t, second, 1000)

	for _, id := range []string{first, second} {
		code, body := f.do(t, call{method: http.MethodPost, path: "/queues/normal/join", player: id})
		require.Equal(t, http.StatusOK, code, body["error"])
	}
	// Unrelated traffic reuses the request buffers.
	f.do(t, call{method: http.MethodGet, path: "/leaderboard", player: "333333333333333333"})

	code, body := f.do(t, call{method: http.MethodGet, path: "/queues"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []interface{}{first, second}, body["normal"])

	code, body = f.do(t, call{method: http.MethodDelete, path: "/queues", player: first})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []interface{}{"normal"}, body["left"])
}

func TestClearQueueIsAdminOnly(t *testing.T) {
	f := newAPI(t)
	code, _ := f.do(t, call{method: http.MethodDelete, path: "/queues/normal", player: "42"})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = f.do(t, call{method: http.MethodDelete, path: "/queues/normal", player: "42", admin: true})
	assert.Equal(t, http.StatusNoContent, code)
}

func TestScoreErrors(t *testing.T) {
	f := newAPI(t)
	admin := func(path, body string) (int, map[string]interface{}) {
		return f.do(t, call{method: http.MethodPost, path: path, body: body, player: "mod", admin: true})
	}

	code, _ := admin("/games/abc/score", `{"winner": "radiant"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := admin("/games/1/score", `{"winner": "nobody"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "winner must be radiant or dire", body["error"])

	code, body = admin("/games/99/score", `{"winner": "radiant"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "no game with id 99", body["error"])
}

func TestScoreStartedGame(t *testing.T) {
	f := newAPI(t)
	for _, id := range []string{"a", "b", "c", "d"} {
		f.seed(t, id, 1000)
	}
	var formed map[string]interface{}
	for _, id := range []string{"a", "b", "c", "d"} {
		code, body := f.do(t, call{method: http.MethodPost, path: "/queues/normal/join", player: id})
		require.Equal(t, http.StatusOK, code)
		formed, _ = body["match"].(map[string]interface{})
	}
	require.NotNil(t, formed)
	game := formed["game"].(map[string]interface{})
	id := uint(game["id"].(float64))
	f.store.SetStatus(id, models.StatusStarted)

	code, body := f.do(t, call{method: http.MethodPost, path: "/games/" + itoa(id) + "/score", body: `{"winner": "dire"}`, player: "mod", admin: true})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "dire", body["winner"])
	assert.EqualValues(t, 25, body["delta"])

	code, body = f.do(t, call{method: http.MethodGet, path: "/players/me/stats", player: "a"})
	require.Equal(t, http.StatusOK, code)
	assert.NotEqualValues(t, 1000, body["mmr"])
}

func TestDraftTurnConflict(t *testing.T) {
	f := newAPI(t)
	ids := []string{"d1", "d2", "d3", "d4"}
	for i, id := range ids {
		f.seed(t, id, 1000+i*100)
	}
	var draft map[string]interface{}
	for _, id := range ids {
		code, body := f.do(t, call{method: http.MethodPost, path: "/queues/draft/join", player: id})
		require.Equal(t, http.StatusOK, code)
		if m, ok := body["match"].(map[string]interface{}); ok {
			draft = m["draft"].(map[string]interface{})
		}
	}
	require.NotNil(t, draft)
	drafter := draft["drafter"].(map[string]interface{})["discord_id"].(string)
	pool := draft["pool"].([]interface{})
	require.NotEmpty(t, pool)
	target := pool[0].(map[string]interface{})["id"].(float64)

	var other string
	for _, id := range ids {
		if id != drafter {
			other = id
			break
		}
	}
	path := "/drafts/" + draft["id"].(string) + "/picks"
	code, body := f.do(t, call{method: http.MethodPost, path: path, body: `{"player_id": ` + itoa(uint(target)) + `}`, player: other})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, drafter, body["expected"])

	code, _ = f.do(t, call{method: http.MethodPost, path: path, body: `{}`, player: drafter})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = f.do(t, call{method: http.MethodPost, path: path, body: `{"player_id": ` + itoa(uint(target)) + `}`, player: drafter})
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["picks"])
}

func TestRecomputeIsAdminOnly(t *testing.T) {
	f := newAPI(t)
	code, _ := f.do(t, call{method: http.MethodPost, path: "/admin/ratings/recompute", player: "42"})
	assert.Equal(t, http.StatusForbidden, code)

	code, body := f.do(t, call{method: http.MethodPost, path: "/admin/ratings/recompute", player: "mod", admin: true})
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 0, body["games"])
}

func itoa(n uint) string {
	return strconv.FormatUint(uint64(n), 10)
}
