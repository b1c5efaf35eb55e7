package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"fdeconsole/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(config.LogConfig{Level: "debug", Format: "json"}, &buf)
	log.WithField("entity", "acme").Debug("checked")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "checked", line["msg"])
	assert.Equal(t, "acme", line["entity"])
	assert.Equal(t, "debug", line["level"])
}

func TestNewLogger_BadLevelFallsBackToInfo(t *testing.T) {
	log := newLogger(config.LogConfig{Level: "chatty", Format: "text"}, &bytes.Buffer{})
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}
