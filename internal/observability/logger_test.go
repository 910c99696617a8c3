// internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hexlattice/leakjar/internal/config"
)

// bufferSyncer adapts a bytes.Buffer to zapcore.WriteSyncer so tests can
// inspect console output without touching real stdio.
type bufferSyncer struct {
	bytes.Buffer
}

func (b *bufferSyncer) Sync() error { return nil }

func testConfig(format string) config.LoggerConfig {
	return config.LoggerConfig{
		Level:       "debug",
		Format:      format,
		ServiceName: "leakjar-test",
	}
}

func TestInitialize_ConsoleFormat(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	var buf bufferSyncer
	Initialize(testConfig("console"), &buf)

	GetLogger().Info("hello from the test", zap.String("k", "v"))
	require.NoError(t, GetLogger().Sync())

	out := buf.String()
	assert.Contains(t, out, "hello from the test")
	assert.Contains(t, out, "leakjar-test.")
	// Console format colorizes the level.
	assert.Contains(t, out, "\x1b[")
}

func TestInitialize_JSONFormat(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	var buf bufferSyncer
	Initialize(testConfig("json"), &buf)

	GetLogger().Warn("structured entry", zap.Int("count", 3))
	require.NoError(t, GetLogger().Sync())

	line := strings.TrimSpace(buf.String())
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "structured entry", entry["msg"])
	assert.Equal(t, float64(3), entry["count"])
}

func TestInitialize_OnlyOnce(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	var first, second bufferSyncer
	Initialize(testConfig("json"), &first)
	Initialize(testConfig("json"), &second)

	GetLogger().Info("goes to the first writer")
	require.NoError(t, GetLogger().Sync())

	assert.NotEmpty(t, first.String())
	assert.Empty(t, second.String())
}

func TestInitialize_BadLevelFallsBackToInfo(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	cfg := testConfig("json")
	cfg.Level = "shouting"

	var buf bufferSyncer
	Initialize(cfg, &buf)

	GetLogger().Debug("suppressed at info level")
	GetLogger().Info("visible")
	require.NoError(t, GetLogger().Sync())

	out := buf.String()
	assert.NotContains(t, out, "suppressed at info level")
	assert.Contains(t, out, "visible")
}

func TestGetLogger_FallbackBeforeInitialize(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	logger := GetLogger()
	require.NotNil(t, logger)
	// The fallback must be usable without panicking.
	logger.Debug("fallback logger works")
}

func TestSync_NoLogger(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)
	// Sync before initialization must be a quiet no-op.
	Sync()
}

func TestColorizedLevelEncoder(t *testing.T) {
	arr := &stringArrayEncoder{}
	colorizedLevelEncoder(zapcore.ErrorLevel, arr)
	require.Len(t, arr.out, 1)
	assert.Contains(t, arr.out[0], "ERROR")
	assert.Contains(t, arr.out[0], colorRed)
}

// stringArrayEncoder captures appended strings for encoder assertions.
type stringArrayEncoder struct {
	zapcore.PrimitiveArrayEncoder
	out []string
}

func (s *stringArrayEncoder) AppendString(v string) { s.out = append(s.out, v) }
