package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	buf := new(bytes.Buffer)
	log := New(buf, false)

	log.Debug().Msg("hidden")
	assert.Empty(t, buf.String())

	log.Info().Str("file", "index.html").Msg("Wrote html document")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "index.html", entry["file"])
	assert.Equal(t, "Wrote html document", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestNew_Dev(t *testing.T) {
	buf := new(bytes.Buffer)
	log := New(buf, true)

	log.Debug().Msg("Configuration composed")
	assert.Contains(t, buf.String(), "Configuration composed")
	assert.Contains(t, buf.String(), "DBG")
}
