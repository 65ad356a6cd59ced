package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name      string
		verbosity int
		wantLevel zerolog.Level
	}{
		{"default warn level", 0, zerolog.WarnLevel},
		{"info level", 1, zerolog.InfoLevel},
		{"debug level", 2, zerolog.DebugLevel},
		{"trace level", 3, zerolog.TraceLevel},
		{"high verbosity defaults to trace", 5, zerolog.TraceLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			t.Setenv("LIBOVERRIDE_STATE_DIR", "")
			t.Setenv("XDG_STATE_HOME", tempDir)

			SetupLogger(tt.verbosity)

			assert.Equal(t, tt.wantLevel, zerolog.GlobalLevel())

			logPath := filepath.Join(tempDir, "liboverride", "liboverride.log")
			_, err := os.Stat(logPath)
			assert.NoError(t, err, "log file should exist at %s", logPath)
		})
	}
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
}

func TestGetLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf)

	logger := GetLogger("remap")
	logger.Warn().Msg("edge skipped")

	assert.Contains(t, buf.String(), `"component":"remap"`)
	assert.Contains(t, buf.String(), "edge skipped")
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf)

	logger := WithFields(map[string]interface{}{"id": "OBRig", "users": 2})
	logger.Warn().Msg("with fields")

	assert.Contains(t, buf.String(), `"id":"OBRig"`)
	assert.Contains(t, buf.String(), `"users":2`)
}

func TestLogOperationStart(t *testing.T) {
	var buf bytes.Buffer
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	done := LogOperationStart(logger, "resync")
	require.Contains(t, buf.String(), "Operation started")
	done()

	assert.Contains(t, buf.String(), "Operation completed")
	assert.Contains(t, buf.String(), "duration")
}

func TestLogOperationStartSlow(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.WarnLevel)

	SetSlowOperation(time.Nanosecond)
	t.Cleanup(func() { SetSlowOperation(0) })

	done := LogOperationStart(logger, "main_resync")
	time.Sleep(time.Millisecond)
	done()

	assert.NotContains(t, buf.String(), "Operation started")
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"operation":"main_resync"`)
	assert.Contains(t, buf.String(), "threshold")
}

func TestLogCommand(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })
	log.Logger = zerolog.New(&buf).Level(zerolog.DebugLevel)

	LogCommand("create", []string{"rig.yaml", "OBRig"})

	assert.Contains(t, buf.String(), "create")
	assert.Contains(t, buf.String(), "OBRig")
}
