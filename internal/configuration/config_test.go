package configuration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `{
  "mongo": {
    "uri": "mongodb://localhost:27017",
    "database": "batePapo",
    "participantsCollection": "participants",
    "messagesCollection": "messages"
  },
  "server": {
    "app_port": 5000,
    "allowed_origins": ["http://localhost:5173"]
  },
  "presence": {
    "timeout_seconds": 10,
    "sweep_seconds": 15
  },
  "rate_limit": {
    "requests_per_second": 5,
    "burst": 10
  }
}`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "mongodb://localhost:27017", config.ChatDatabase.Uri)
	assert.Equal(t, "batePapo", config.ChatDatabase.Database)
	assert.Equal(t, "participants", config.ChatDatabase.ParticipantsCollection)
	assert.Equal(t, "messages", config.ChatDatabase.MessagesCollection)
	assert.Equal(t, 5000, config.Server.AppPort)
	assert.Equal(t, 10, config.Presence.TimeoutSeconds)
	assert.Equal(t, 15, config.Presence.SweepSeconds)
	assert.Equal(t, 5.0, config.RateLimit.RequestsPerSecond)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "mongodb://replica:27017")
	t.Setenv("PORT", "8080")

	config, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "mongodb://replica:27017", config.ChatDatabase.Uri)
	assert.Equal(t, 8080, config.Server.AppPort)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadConfigMalformedJSON(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `{"mongo": `))
	assert.Error(t, err)
}
