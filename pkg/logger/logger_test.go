package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Level(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, NewLogger("debug").GetLevel())
	assert.Equal(t, logrus.InfoLevel, NewLogger("not-a-level").GetLevel())
}

func TestLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger("info")
	l.SetOutput(&buf)

	l.WithField("user_id", "u1").Info("hello")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "u1", entry["user_id"])
	assert.Equal(t, "info", entry["level"])
}
