// models/game.go
package models

import (
	"time"
)

const (
	GameTypeNormal GameType = "NORMAL"
	GameTypeDraft  GameType = "DRAFT"
)

// GameType tells which queue a game was formed from.
type GameType string

// Side is one of the two rosters of a game. Stored as 0/1.
type Side int

const (
	SideRadiant Side = 0
	SideDire    Side = 1
)

// Other returns the opposing side.
func (s Side) Other() Side {
	return 1 - s
}

func (s Side) String() string {
	if s == SideRadiant {
		return "radiant"
	}
	return "dire"
}

// ParseSide accepts the winning team's name, never a bare number.
func ParseSide(name string) (Side, bool) {
	switch name {
	case "radiant":
		return SideRadiant, true
	case "dire":
		return SideDire, true
	}
	return 0, false
}

// Game is one real-world match attempt. Rows are never deleted except by a league reset.
type Game struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	Status       GameStatus `json:"status" gorm:"type:varchar(16);not null;index"`
	Result       *Side      `json:"result,omitempty"`
	SteamMatchID *int64     `json:"steam_match_id,omitempty" gorm:"index"`
	Type         GameType   `json:"type" gorm:"type:varchar(16);not null;default:'NORMAL'"`
	CreatedAt    time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// GamePlayer seats a player on a side of a game.
type GamePlayer struct {
	ID       uint `json:"id" gorm:"primaryKey"`
	GameID   uint `json:"game_id" gorm:"not null;index"`
	PlayerID uint `json:"player_id" gorm:"not null;index"`
	Team     Side `json:"team" gorm:"not null"`
	Arrived  bool `json:"arrived" gorm:"not null;default:false"`

	Game   Game   `json:"-" gorm:"foreignKey:GameID"`
	Player Player `json:"-" gorm:"foreignKey:PlayerID"`
}

// GameArgs holds the lobby credentials handed to the session host. Immutable once written.
type GameArgs struct {
	ID            uint   `json:"id" gorm:"primaryKey"`
	GameID        uint   `json:"game_id" gorm:"not null;uniqueIndex"`
	LobbyName     string `json:"lobby_name" gorm:"not null"`
	LobbyPassword string `json:"lobby_password" gorm:"not null"`

	Game Game `json:"-" gorm:"foreignKey:GameID"`
}

// RosterEntry is a seat joined with the player it belongs to.
type RosterEntry struct {
	PlayerID  uint   `json:"player_id"`
	DiscordID string `json:"discord_id"`
	SteamID   int64  `json:"steam_id"`
	MMR       int    `json:"mmr" gorm:"column:mmr"`
	Team      Side   `json:"team"`
	Arrived   bool   `json:"arrived"`
}

// LeagueSnapshot is the full match history exported before a league reset.
type LeagueSnapshot struct {
	TakenAt     time.Time    `json:"taken_at"`
	Players     []Player     `json:"players"`
	Games       []Game       `json:"games"`
	GamePlayers []GamePlayer `json:"game_players"`
	GameArgs    []GameArgs   `json:"game_args"`
}
