// internal/logging/logging_test.go
package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/assetdesk/internal/config"
)

func TestSetupRejectsUnknownLevel(t *testing.T) {
	_, err := Setup(logrus.New(), config.LogConfig{Level: "chatty"})
	assert.Error(t, err)
}

func TestSetupStdout(t *testing.T) {
	logger := logrus.New()
	closer, err := Setup(logger, config.LogConfig{Level: "WARN", Format: "json"})
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}

func TestSetupWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assetdesk.log")
	logger := logrus.New()
	closer, err := Setup(logger, config.LogConfig{Level: "info", File: path, MaxSizeMB: 1, Backups: 1, MaxAge: 1})
	require.NoError(t, err)

	logger.WithField("component", "test").Info("hello file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello file")
	assert.Contains(t, string(data), "component=test")
}
