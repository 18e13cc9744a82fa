package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"boltalka-bot/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	writerMu sync.RWMutex
	writer   io.Writer = os.Stdout
)

// Init configures the global zerolog logger. When cfg.File is set, output is
// duplicated into a size-capped file.
func Init(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var (
		out     io.Writer = os.Stdout
		fileErr error
	)
	if cfg.File != "" {
		var fw *sizeLimitedWriter
		fw, fileErr = newSizeLimitedWriter(cfg.File, cfg.MaxMB)
		if fileErr == nil {
			out = io.MultiWriter(os.Stdout, fw)
		}
	}
	setWriter(out)

	var console io.Writer = out
	if cfg.Pretty {
		console = zerolog.ConsoleWriter{Out: out}
	}

	zerolog.SetGlobalLevel(level)
	ctx := zerolog.New(console).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	logger := ctx.Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger
	if fileErr != nil {
		log.Warn().Err(fileErr).Str("file", cfg.File).Msg("log file unavailable; stdout only")
	}
}

// Writer returns the raw output used by the global logger, for components
// that log through slog.
func Writer() io.Writer {
	writerMu.RLock()
	defer writerMu.RUnlock()
	return writer
}

func setWriter(w io.Writer) {
	writerMu.Lock()
	defer writerMu.Unlock()
	writer = w
}
