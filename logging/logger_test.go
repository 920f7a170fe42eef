package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" warn "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("chatty"))
}

func TestLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "orchestrator", "info")
	log.Debug().Msg("hidden")
	log.Info().Uint("game_id", 7).Msg("session host launched")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "orchestrator", line["component"])
	assert.Equal(t, "session host launched", line["message"])
	assert.Equal(t, float64(7), line["game_id"])
}
