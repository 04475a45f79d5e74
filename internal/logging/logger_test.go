package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_ConsoleOnly(t *testing.T) {
	logger, err := New(Config{
		Level:   LevelInfo,
		Console: ConsoleConfig{Enabled: true, Format: FormatConsole},
	})
	require.NoError(t, err)
	require.NotNil(t, logger)

	logger.Info("test console logging")
}

func TestNew_FileOnly(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")

	logger, err := New(Config{
		Level: LevelDebug,
		File: FileConfig{
			Enabled:  true,
			Path:     logPath,
			Format:   FormatJSON,
			Rotation: RotationConfig{MaxSize: 10, MaxAge: 7, MaxBackups: 3},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, logger)

	logger.Info("test file logging", zap.String("key", "value"))
	logger.Sync()

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "test file logging")
	assert.Contains(t, string(content), "value")
}

func TestNew_NoOutputsEnabled(t *testing.T) {
	logger, err := New(Config{Level: LevelInfo})
	assert.Error(t, err)
	assert.Nil(t, logger)
	assert.Contains(t, err.Error(), "at least one log output")
}

func TestNew_FileEnabledNoPath(t *testing.T) {
	logger, err := New(Config{
		Level: LevelInfo,
		File:  FileConfig{Enabled: true, Format: FormatJSON},
	})
	assert.Error(t, err)
	assert.Nil(t, logger)
	assert.Contains(t, err.Error(), "file.path must be specified")
}

func TestNew_LogLevels(t *testing.T) {
	tests := []struct {
		level         string
		expectedLevel zapcore.Level
	}{
		{LevelDebug, zap.DebugLevel},
		{LevelInfo, zap.InfoLevel},
		{LevelWarn, zap.WarnLevel},
		{LevelError, zap.ErrorLevel},
		{"invalid", zap.InfoLevel},
		{"", zap.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logPath := filepath.Join(t.TempDir(), "test-level.log")
			logger, err := New(Config{
				Level: tt.level,
				File:  FileConfig{Enabled: true, Path: logPath, Format: FormatJSON},
			})
			require.NoError(t, err)

			logger.Debug("debug message")
			logger.Info("info message")
			logger.Warn("warn message")
			logger.Error("error message")
			logger.Sync()

			content, err := os.ReadFile(logPath)
			require.NoError(t, err)

			switch tt.expectedLevel {
			case zap.DebugLevel:
				assert.Contains(t, string(content), "debug message")
			case zap.InfoLevel:
				assert.NotContains(t, string(content), "debug message")
				assert.Contains(t, string(content), "info message")
			case zap.WarnLevel:
				assert.NotContains(t, string(content), "info message")
				assert.Contains(t, string(content), "warn message")
			case zap.ErrorLevel:
				assert.NotContains(t, string(content), "warn message")
				assert.Contains(t, string(content), "error message")
			}
		})
	}
}

func TestNewDefault(t *testing.T) {
	logger, err := NewDefault()
	require.NoError(t, err)
	require.NotNil(t, logger)
	logger.Debug("default logger test")
}

func TestEnsureInfoLevelForShutdown(t *testing.T) {
	t.Run("console level higher than INFO is lowered", func(t *testing.T) {
		logger, err := New(Config{
			Level:   LevelError,
			Console: ConsoleConfig{Enabled: true, Format: FormatConsole},
		})
		require.NoError(t, err)

		assert.Equal(t, zap.ErrorLevel, logger.consoleLevel.Level())
		logger.EnsureInfoLevelForShutdown()
		assert.Equal(t, zap.InfoLevel, logger.consoleLevel.Level())
	})

	t.Run("level at DEBUG is not raised", func(t *testing.T) {
		logger, err := New(Config{
			Level:   LevelDebug,
			Console: ConsoleConfig{Enabled: true, Format: FormatConsole},
		})
		require.NoError(t, err)

		assert.Equal(t, zap.DebugLevel, logger.consoleLevel.Level())
		logger.EnsureInfoLevelForShutdown()
		assert.Equal(t, zap.DebugLevel, logger.consoleLevel.Level())
	})
}

func TestSwitchToConfiguredLevel(t *testing.T) {
	logger, err := NewWithStartupOverride(Config{
		Level:   LevelError,
		Console: ConsoleConfig{Enabled: true, Format: FormatConsole},
	})
	require.NoError(t, err)
	assert.Equal(t, zap.InfoLevel, logger.consoleLevel.Level())

	logger.SwitchToConfiguredLevel()
	assert.Equal(t, zap.ErrorLevel, logger.consoleLevel.Level())
}

func TestResolveLevel(t *testing.T) {
	assert.Equal(t, zap.DebugLevel, resolveLevel(LevelDebug, zap.InfoLevel))
	assert.Equal(t, zap.WarnLevel, resolveLevel("", zap.WarnLevel))
}
