package internal

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	// DefaultConfigPath is the default path to the config directory
	DefaultAppName    = "bertqa"
	DefaultConfigPath = filepath.Join(getHomeDir(), ".config", DefaultAppName)
	DefaultModelDir   = filepath.Join(DefaultConfigPath, "models", "bert-large-uncased-whole-word-masking-finetuned-squad")
	DefaultModelPath  = filepath.Join(DefaultModelDir, "model.onnx")
	DefaultVocabPath  = filepath.Join(DefaultModelDir, "vocab.txt")
	DefaultEnvPrefix  = "BERTQA"
)

const (
	// DefaultMaxPositions is the number of position embeddings of BERT models.
	DefaultMaxPositions = 512
	// DefaultMaxAnswerLen bounds the joint span search, in tokens.
	DefaultMaxAnswerLen = 30
)

func getHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		cwd, cwdErr := os.Getwd()
		if cwdErr != nil {
			log.Printf("Unable to get home or working directory, using /tmp: %v", err)
			return "/tmp"
		}
		log.Printf("Unable to get home directory, using current working directory: %v", err)
		return cwd
	}
	return homeDir
}

// GetLogger returns a properly configured zerolog logger instance
func GetLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// NewLogger builds a logger at the given level. pretty switches to a
// human-readable console writer.
func NewLogger(level string, pretty bool) (zerolog.Logger, error) {
	lvl := zerolog.InfoLevel
	if s := strings.TrimSpace(level); s != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(s))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}
	if !pretty {
		return GetLogger().Level(lvl), nil
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(out).With().Timestamp().Logger().Level(lvl), nil
}
