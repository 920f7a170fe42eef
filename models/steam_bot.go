package models

import "time"

// BotStatus is stored as an integer: 0 free, 1 reserved.
type BotStatus int

const (
	BotFree     BotStatus = 0
	BotReserved BotStatus = 1
)

// SteamBot is a reusable session-host credential. At most one active game owns it.
type SteamBot struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Username    string    `json:"username" gorm:"uniqueIndex;not null"`
	Password    string    `json:"-" gorm:"not null"`
	Status      BotStatus `json:"status" gorm:"not null;default:0;index"`
	ReservedFor *uint     `json:"reserved_for,omitempty"` // game id, informational only
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// BotCredential is one entry of the steam account file.
type BotCredential struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
