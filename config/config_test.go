package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	mjerrors "github.com/wippyai/mujoco-runtime/errors"
	"github.com/wippyai/mujoco-runtime/internal/marshal"
	"github.com/wippyai/mujoco-runtime/native/nativetest"
	"github.com/wippyai/mujoco-runtime/sim"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, marshal.DefaultErrorBufferSize, cfg.Engine.ErrorBufferSize)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
engine:
  error_buffer_size: 2000
  skip_binary_validation: true
log:
  level: debug
  development: true
metrics:
  enabled: true
  namespace: robotics
`))
	require.NoError(t, err)
	assert.Equal(t, 2000, cfg.Engine.ErrorBufferSize)
	assert.True(t, cfg.Engine.SkipBinaryValidation)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "robotics", cfg.Metrics.Namespace)
}

func TestParseKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("log:\n  level: warn\n"))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, marshal.DefaultErrorBufferSize, cfg.Engine.ErrorBufferSize)
	assert.Equal(t, "mujoco", cfg.Metrics.Namespace)
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		msg  string
	}{
		{"malformed", "engine: [", "failed to parse config"},
		{"negative buffer", "engine:\n  error_buffer_size: -1\n", "error_buffer_size"},
		{"bad level", "log:\n  level: loud\n", "log.level"},
		{"bad encoding", "log:\n  encoding: xml\n", "log.encoding"},
		{"empty namespace", "metrics:\n  enabled: true\n  namespace: \"\"\n", "metrics.namespace"},
		{"bad namespace", "metrics:\n  enabled: true\n  namespace: my-app\n", "metrics.namespace"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runtime.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  error_buffer_size: 64\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Engine.ErrorBufferSize)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, mjerrors.ErrFileNotFound)
	assert.Contains(t, err.Error(), "missing.yaml")

	_, err = Load(t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, &mjerrors.Error{Phase: mjerrors.PhaseConfig, Kind: mjerrors.KindInvalidInput})

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("engine: ["), 0o644))
	_, err = Load(bad)
	assert.ErrorIs(t, err, &mjerrors.Error{Phase: mjerrors.PhaseConfig, Kind: mjerrors.KindInvalidData})
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "debug"
	cfg.Log.Development = true
	cfg.Log.Encoding = "console"

	log, err := cfg.NewLogger()
	require.NoError(t, err)
	defer log.Sync()
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	cfg.Log.Level = "error"
	log, err = cfg.NewLogger()
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.WarnLevel))
}

func TestNewMetrics(t *testing.T) {
	cfg := Default()
	m, err := cfg.NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	assert.Nil(t, m)

	cfg.Metrics.Enabled = true
	reg := prometheus.NewRegistry()
	m, err = cfg.NewMetrics(reg)
	require.NoError(t, err)
	require.NotNil(t, m)

	_, err = cfg.NewMetrics(reg)
	assert.Error(t, err, "registering twice should fail")
}

func TestSimConfig(t *testing.T) {
	cfg, err := Parse([]byte("engine:\n  error_buffer_size: 8\n"))
	require.NoError(t, err)

	eng, err := sim.New(cfg.SimConfig(nativetest.New(nil), nil, nil))
	require.NoError(t, err)
	defer eng.Close()

	// The small buffer truncates loader messages.
	_, err = eng.LoadDescription("<mujoco>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "XML Err")
	assert.NotContains(t, err.Error(), "XML Error")
}

func TestProbeLibraryMissing(t *testing.T) {
	cfg := Default()
	cfg.Engine.LibraryPath = filepath.Join(t.TempDir(), "libmissing.so")
	_, err := cfg.ProbeLibrary()
	assert.Error(t, err)
}
