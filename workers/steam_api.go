package workers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"

	"league-orchestrator/models"
	"league-orchestrator/services"
	"league-orchestrator/utils"
)

const (
	DefaultSteamAPIURL = "https://api.steampowered.com"
	// steam64 ids are the 32-bit account id offset by this base.
	steamID64Base = 76561197960265728
	// anonymousAccountID is reported for players hiding their profile and for bots.
	anonymousAccountID = 4294967295
	// player slots from 128 up are on the dire side.
	direSlotBase = 128
)

// SteamAPI reads league match history from the Steam Web API.
type SteamAPI struct {
	BaseURL    string
	Key        string
	HTTPClient *http.Client
}

func NewSteamAPI(key string) *SteamAPI {
	return &SteamAPI{BaseURL: DefaultSteamAPIURL, Key: key, HTTPClient: utils.HTTPClient}
}

func (s *SteamAPI) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	base, err := url.Parse(s.BaseURL)
	if err != nil {
		return eris.Wrapf(err, "invalid steam api url %q", s.BaseURL)
	}
	endpoint := base.JoinPath(path)
	params.Set("key", s.Key)
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return eris.Wrap(err, "failed to create steam api request")
	}
	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return eris.Wrapf(err, "steam api request to %s failed", path)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("steam api returned %d for %s", resp.StatusCode, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return eris.Wrap(err, "failed to decode steam api response")
	}
	return nil
}

type steamPlayer struct {
	AccountID  int64 `json:"account_id"`
	PlayerSlot int   `json:"player_slot"`
}

type steamMatch struct {
	MatchID int64         `json:"match_id"`
	Players []steamPlayer `json:"players"`
}

func (s *SteamAPI) LeagueMatches(ctx context.Context, leagueID int) ([]services.ExternalMatch, error) {
	var resp struct {
		Result struct {
			Status  int          `json:"status"`
			Matches []steamMatch `json:"matches"`
		} `json:"result"`
	}
	params := url.Values{}
	params.Set("league_id", strconv.Itoa(leagueID))
	if err := s.get(ctx, "/IDOTA2Match_570/GetMatchHistory/v1/", params, &resp); err != nil {
		return nil, err
	}

	matches := make([]services.ExternalMatch, 0, len(resp.Result.Matches))
	for _, m := range resp.Result.Matches {
		ext := services.ExternalMatch{MatchID: m.MatchID}
		for _, p := range m.Players {
			if p.AccountID == anonymousAccountID || p.AccountID == 0 {
				continue
			}
			team := models.SideRadiant
			if p.PlayerSlot >= direSlotBase {
				team = models.SideDire
			}
			ext.Seats = append(ext.Seats, services.Seat{SteamID: p.AccountID + steamID64Base, Team: team})
		}
		matches = append(matches, ext)
	}
	return matches, nil
}

func (s *SteamAPI) MatchWinner(ctx context.Context, matchID int64) (models.Side, error) {
	var resp struct {
		Result struct {
			RadiantWin *bool  `json:"radiant_win"`
			Error      string `json:"error"`
		} `json:"result"`
	}
	params := url.Values{}
	params.Set("match_id", strconv.FormatInt(matchID, 10))
	if err := s.get(ctx, "/IDOTA2Match_570/GetMatchDetails/v1/", params, &resp); err != nil {
		return 0, err
	}
	if resp.Result.RadiantWin == nil {
		return 0, eris.Errorf("match %d has no result: %s", matchID, resp.Result.Error)
	}
	if *resp.Result.RadiantWin {
		return models.SideRadiant, nil
	}
	return models.SideDire, nil
}
