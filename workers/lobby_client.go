package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"

	"league-orchestrator/models"
	"league-orchestrator/services"
	"league-orchestrator/utils"
)

// BridgeLobby talks to the game-client bridge that owns the actual game
// network session.
type BridgeLobby struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewBridgeLobby(baseURL, token string) (*BridgeLobby, error) {
	if baseURL == "" {
		return nil, eris.New("BRIDGE_URL environment variable is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, eris.Wrapf(err, "invalid bridge url %q", baseURL)
	}
	return &BridgeLobby{BaseURL: baseURL, Token: token, HTTPClient: utils.HTTPClient}, nil
}

func (b *BridgeLobby) do(ctx context.Context, method, path string, body, out interface{}) error {
	base, err := url.Parse(b.BaseURL)
	if err != nil {
		return eris.Wrapf(err, "invalid bridge url %q", b.BaseURL)
	}
	endpoint := base.JoinPath(path).String()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return eris.Wrap(err, "failed to encode request")
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return eris.Wrapf(err, "failed to create request to %s", endpoint)
	}
	req.Header.Set("X-Service-Token", b.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.HTTPClient.Do(req)
	if err != nil {
		return eris.Wrapf(err, "%s %s failed", method, endpoint)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return eris.Errorf("bridge returned %d for %s %s: %s", resp.StatusCode, method, path, string(msg))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return eris.Wrap(err, "failed to decode bridge response")
	}
	return nil
}

func (b *BridgeLobby) Create(ctx context.Context, req LobbyRequest) (string, error) {
	var resp struct {
		LobbyID string `json:"lobby_id"`
	}
	if err := b.do(ctx, http.MethodPost, "/lobbies", req, &resp); err != nil {
		return "", err
	}
	if resp.LobbyID == "" {
		return "", eris.New("bridge returned no lobby id")
	}
	return resp.LobbyID, nil
}

func (b *BridgeLobby) Invite(ctx context.Context, lobbyID string, steamIDs []int64) error {
	body := map[string]interface{}{"steam_ids": steamIDs}
	return b.do(ctx, http.MethodPost, fmt.Sprintf("/lobbies/%s/invites", url.PathEscape(lobbyID)), body, nil)
}

type bridgeMember struct {
	SteamID int64  `json:"steam_id"`
	Team    string `json:"team"`
}

// Members skips anyone who is not in a radiant or dire slot.
func (b *BridgeLobby) Members(ctx context.Context, lobbyID string) ([]services.Seat, error) {
	var resp struct {
		Members []bridgeMember `json:"members"`
	}
	if err := b.do(ctx, http.MethodGet, fmt.Sprintf("/lobbies/%s/members", url.PathEscape(lobbyID)), nil, &resp); err != nil {
		return nil, err
	}
	seats := make([]services.Seat, 0, len(resp.Members))
	for _, m := range resp.Members {
		side, ok := models.ParseSide(m.Team)
		if !ok {
			continue
		}
		seats = append(seats, services.Seat{SteamID: m.SteamID, Team: side})
	}
	return seats, nil
}

func (b *BridgeLobby) Launch(ctx context.Context, lobbyID string) error {
	return b.do(ctx, http.MethodPost, fmt.Sprintf("/lobbies/%s/launch", url.PathEscape(lobbyID)), nil, nil)
}

func (b *BridgeLobby) Destroy(ctx context.Context, lobbyID string) error {
	return b.do(ctx, http.MethodDelete, "/lobbies/"+url.PathEscape(lobbyID), nil, nil)
}
