package logger

import (
	"CheckinVoyage/internal/api/config"
	"io"
	log "log/slog"
	"os"
)

var LogWriter io.Writer

func parseLevel(raw string) log.Level {
	switch raw {
	case "debug":
		return log.LevelDebug
	case "warn":
		return log.LevelWarn
	case "error":
		return log.LevelError
	default:
		return log.LevelInfo
	}
}

func InitLogger() {
	level := log.LevelInfo
	if config.Cfg != nil {
		level = parseLevel(config.Cfg.Server.LogLevel)
	}

	LogWriter = os.Stdout
	hStdout := log.NewJSONHandler(LogWriter, &log.HandlerOptions{Level: level})

	log.SetDefault(log.New(&ContextHandler{hStdout}))
}
