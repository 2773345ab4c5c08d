package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Init initializes the global logger with dual sinks: os.Stderr and a
// rotating file under the data directory's logs folder. This replaces the
// daily parse_log text files of earlier tooling with one rotated log.
func Init(verbose bool) {
	// 0. Load .env from the binary directory so LOGS_FOLDER is available.
	// Init runs before config.Load.
	exePath, err := os.Executable()
	if err == nil {
		_ = godotenv.Load(filepath.Join(filepath.Dir(exePath), ".env"))
	}
	_ = godotenv.Load()

	// 1. Determine log level
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	// 2. Setup Stderr Writer (Console)
	isTerminal := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !isTerminal,
	}

	// 3. Setup File Writer (Rotating)
	logDir := os.Getenv("LOGS_FOLDER")
	if logDir == "" {
		dataPath := os.Getenv("DATA_PATH")
		if dataPath == "" {
			dataPath = "data"
		}
		logDir = filepath.Join(dataPath, "logs")
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		// Keep the console sink; a missing log directory must not block a
		// reporting cycle.
		log.Logger = zerolog.New(consoleWriter).With().Timestamp().Logger()
		log.Warn().Err(err).Str("path", logDir).Msg("Log directory unavailable, console only")
		return
	}

	fileWriter := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "hustleyourcity.log"),
		MaxSize:    16, // megabytes
		MaxBackups: 32,
		MaxAge:     365, // days
		Compress:   true,
	}

	// 4. Combine Writers
	multi := zerolog.MultiLevelWriter(io.Writer(consoleWriter), fileWriter)

	// 5. Set Global Logger
	log.Logger = zerolog.New(multi).
		With().
		Timestamp().
		Logger()
}
