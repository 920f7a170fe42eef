package models

import (
	"time"
)

// Player is a vouched league member. mmr is only changed by the rating engine.
type Player struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	DiscordID string    `json:"discord_id" gorm:"uniqueIndex;not null"` // external chat account
	SteamID   int64     `json:"steam_id" gorm:"index;not null"`         // steam64 of the in-game account
	MMR       int       `json:"mmr" gorm:"column:mmr;not null"`
	Captain   bool      `json:"captain" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// PlayerRole is one preferred position (1-5). A player may have several.
type PlayerRole struct {
	ID       uint `json:"id" gorm:"primaryKey"`
	PlayerID uint `json:"player_id" gorm:"not null;index"`
	Role     int  `json:"role" gorm:"not null;check:role >= 1 and role <= 5"`

	Player Player `json:"-" gorm:"foreignKey:PlayerID"`
}

// PlayerRecord summarizes a player's scored games.
type PlayerRecord struct {
	Played int64 `json:"played"`
	Wins   int64 `json:"wins"`
	Losses int64 `json:"losses"`
	Rank   int64 `json:"rank"` // 1-based among players with a scored game; 0 when unranked
}

// Standing is one leaderboard row.
type Standing struct {
	DiscordID string `json:"discord_id"`
	MMR       int    `json:"mmr" gorm:"column:mmr"`
}
