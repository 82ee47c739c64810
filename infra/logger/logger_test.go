package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigSetDefaults(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)

	cfg = Config{Level: "debug", Format: "console"}
	cfg.SetDefaults()
	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
}

func TestJSONOutputCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	log := newZerologLogger(Config{Level: "info", Format: "json"}, "engine", &buf)
	log.Infof("tick %d done", 7)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "engine", entry["component"])
	assert.Equal(t, "tick 7 done", entry["message"])
	assert.Equal(t, "info", entry["level"])
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	log := newZerologLogger(Config{Level: "info", Format: "json"}, "engine", &buf)
	log.Debugf("hidden")
	log.Debugw("hidden too", map[string]any{"k": "v"})
	assert.Zero(t, buf.Len())

	buf.Reset()
	log = newZerologLogger(Config{Level: "debug", Format: "json"}, "engine", &buf)
	log.Debugw("queue drained", map[string]any{"region": "porto"})
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "porto", entry["region"])
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := newZerologLogger(Config{Level: "chatty", Format: "json"}, "engine", &buf)
	log.Debugf("hidden")
	assert.Zero(t, buf.Len())
	log.Infof("shown")
	assert.NotZero(t, buf.Len())
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log := newZerologLogger(Config{Level: "info", Format: "console"}, "engine", &buf)
	log.Warnf("almost full")
	out := buf.String()
	assert.False(t, strings.HasPrefix(strings.TrimSpace(out), "{"), "console output should not be JSON")
	assert.Contains(t, out, "almost full")
}

func TestConfigureAppliesToNewLoggers(t *testing.T) {
	prev := active
	defer Configure(prev)

	Configure(Config{Level: "error", Format: "json"})
	assert.Equal(t, "error", active.Level)

	// Zero values fall back to the defaults rather than disabling output.
	Configure(Config{})
	assert.Equal(t, "info", active.Level)
	assert.Equal(t, "json", active.Format)
}
