// Package config loads process configuration: secrets and endpoints from the
// environment (optionally seeded from a .env file) and league settings from YAML.
package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"league-orchestrator/utils"
)

const (
	DefaultEnvFile         = ".env"
	DevEnvFile             = ".dev.env"
	DefaultSettingsFile    = "league_settings.yaml"
	DevSettingsFile        = "league_settings_dev.yaml"
	DefaultListenAddr      = ":5200"
	defaultGameNamePrefix  = "Inhouse"
	defaultStartingMMR     = 1000
	defaultLobbySize       = 10
	defaultGameMode        = 16
	defaultLobbyTimeoutSec = 300
)

// Settings is the league_settings.yaml document.
type Settings struct {
	LeagueID             int           `yaml:"league_id"`
	LeagueName           string        `yaml:"league_name"`
	GameMode             int           `yaml:"game_mod"`
	LobbyTimeoutSeconds  int           `yaml:"lobby_timeout"`
	GameNamePrefix       string        `yaml:"game_name_prefix"`
	StartingMMR          int           `yaml:"league_starting_mmr"`
	LobbySize            int           `yaml:"lobby_size"`
	OrchestratorInterval time.Duration `yaml:"orchestrator_interval"`
	TimeoutPollInterval  time.Duration `yaml:"timeout_poll_interval"`
	CancelPollInterval   time.Duration `yaml:"cancel_poll_interval"`
	SkipMatches          []int64       `yaml:"skip_matches"`
}

func DefaultSettings() Settings {
	return Settings{
		GameMode:             defaultGameMode,
		LobbyTimeoutSeconds:  defaultLobbyTimeoutSec,
		GameNamePrefix:       defaultGameNamePrefix,
		StartingMMR:          defaultStartingMMR,
		LobbySize:            defaultLobbySize,
		OrchestratorInterval: 10 * time.Second,
		TimeoutPollInterval:  5 * time.Second,
		CancelPollInterval:   15 * time.Second,
	}
}

func (s Settings) LobbyTimeout() time.Duration {
	return time.Duration(s.LobbyTimeoutSeconds) * time.Second
}

// Name is the league's display name, used to namespace shared keys.
func (s Settings) Name() string {
	if s.LeagueName != "" {
		return s.LeagueName
	}
	return s.GameNamePrefix
}

func (s Settings) Validate() error {
	if s.LobbySize < 2 || s.LobbySize%2 != 0 {
		return eris.Errorf("lobby_size must be even and at least 2, got %d", s.LobbySize)
	}
	if s.LobbyTimeoutSeconds <= 0 {
		return eris.Errorf("lobby_timeout must be positive, got %d", s.LobbyTimeoutSeconds)
	}
	if s.OrchestratorInterval <= 0 || s.TimeoutPollInterval <= 0 || s.CancelPollInterval <= 0 {
		return eris.New("poll intervals must be positive")
	}
	return nil
}

// LoadSettings reads path over the defaults. A missing file yields the defaults.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, eris.Wrapf(err, "failed to read %s", path)
	}
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return s, eris.Wrapf(err, "failed to parse %s", path)
	}
	return s, s.Validate()
}

// Env holds secrets and endpoints.
type Env struct {
	DatabaseURL   string
	ServiceToken  string
	RedisAddress  string
	RedisPassword string
	SteamAPIKey   string
	BridgeURL     string
	ListenAddr    string
	AllowOrigins  string
	LogLevel      string
	R2            utils.R2Config
}

// LoadEnv seeds the process environment from path, if it exists, then reads
// every variable. Values already in the environment win.
func LoadEnv(path string) (Env, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Env{}, eris.Wrapf(err, "failed to load %s", path)
		}
	}
	e := Env{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		ServiceToken:  os.Getenv("SERVICE_TOKEN"),
		RedisAddress:  os.Getenv("REDIS_ADDRESS"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		SteamAPIKey:   os.Getenv("STEAM_API_KEY"),
		BridgeURL:     os.Getenv("BRIDGE_URL"),
		ListenAddr:    os.Getenv("LISTEN_ADDR"),
		AllowOrigins:  os.Getenv("ALLOWED_ORIGINS"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		R2: utils.R2Config{
			AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			AccessKeySecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
			Bucket:          os.Getenv("R2_BUCKET_NAME"),
			Endpoint:        os.Getenv("R2_ENDPOINT"),
		},
	}
	if e.ListenAddr == "" {
		e.ListenAddr = DefaultListenAddr
	}
	return e, nil
}

// Config is everything one process needs.
type Config struct {
	Dev      bool
	Env      Env
	Settings Settings
}

// Options select the files to load. Empty paths fall back to the defaults for
// the chosen mode.
type Options struct {
	Dev          bool
	EnvFile      string
	SettingsFile string
}

func Load(opts Options) (Config, error) {
	envFile, settingsFile := DefaultEnvFile, DefaultSettingsFile
	if opts.Dev {
		envFile, settingsFile = DevEnvFile, DevSettingsFile
	}
	if opts.EnvFile != "" {
		envFile = opts.EnvFile
	}
	if opts.SettingsFile != "" {
		settingsFile = opts.SettingsFile
	}

	env, err := LoadEnv(envFile)
	if err != nil {
		return Config{}, err
	}
	settings, err := LoadSettings(settingsFile)
	if err != nil {
		return Config{}, err
	}
	return Config{Dev: opts.Dev, Env: env, Settings: settings}, nil
}

// RequireDatabase fails when DATABASE_URL is unset.
func (c Config) RequireDatabase() error {
	if c.Env.DatabaseURL == "" {
		return eris.New("DATABASE_URL environment variable is required")
	}
	return nil
}
