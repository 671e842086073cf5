// internal/logging/logging.go
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/javajoker/assetdesk/internal/config"
)

// Setup configures the standard logrus logger. When cfg.File is set, output
// is teed to stdout and a rotated file. The returned closer releases the file.
func Setup(logger *logrus.Logger, cfg config.LogConfig) (io.Closer, error) {
	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if cfg.File == "" {
		logger.SetOutput(os.Stdout)
		return io.NopCloser(nil), nil
	}

	rotated := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.Backups,
		MaxAge:     cfg.MaxAge,
	}
	logger.SetOutput(io.MultiWriter(os.Stdout, rotated))
	return rotated, nil
}
