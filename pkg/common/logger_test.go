package common

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	_ "liyu1981.xyz/robot-fleet-service/pkg/testing"
)

func TestLoggingCapture(t *testing.T) {
	var buf bytes.Buffer
	SetTestCaptureLogger(&buf, zapcore.InfoLevel)

	logger := GetLogger()
	logger.Info("Test log message", zap.String("key", "value"))

	logOutput := buf.String()
	if !strings.Contains(logOutput, "Test log message") {
		t.Errorf("expected log output to contain message, got: %s", logOutput)
	}
}

func TestNamedLoggerCarriesCategory(t *testing.T) {
	var buf bytes.Buffer
	SetTestCaptureLogger(&buf, zapcore.InfoLevel)

	GetLoggerWith(LoggerNameHub, zap.String(LoggerFieldFleetCategory, LoggerCategoryFleetTelemetry)).
		Info("published")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "hub", line["logger"])
	assert.Equal(t, "telemetry", line["category"])
	assert.Equal(t, "published", line["msg"])
}

func TestCaptureLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	SetTestCaptureLogger(&buf, zapcore.InfoLevel)

	GetLogger().Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestLoggerSafeForConcurrentUse(t *testing.T) {
	var buf bytes.Buffer
	SetTestCaptureLogger(&buf, zapcore.InfoLevel)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				GetLoggerWith(LoggerNameWsServer, zap.Int("worker", i)).Info("tick")
				GetLogger().Debug("hidden")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 8*50, strings.Count(buf.String(), `"msg":"tick"`))
}
