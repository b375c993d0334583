package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, NewLogger("debug").GetLevel())
	assert.Equal(t, logrus.InfoLevel, NewLogger("not-a-level").GetLevel())
}

func TestLoggerWritesJSON(t *testing.T) {
	l := NewLogger("info")
	var buf bytes.Buffer
	l.SetOutput(&buf)

	l.WithFields(map[string]interface{}{"user_id": "u1"}).Info("User followed successfully")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "User followed successfully", entry["msg"])
	assert.Equal(t, "u1", entry["user_id"])
}
