package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	internal "github.com/ZanzyTHEbar/bertqa/qa"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file, environment variables or flags.
type Config struct {
	Model  ModelConfig  `mapstructure:"model"`
	ONNX   ONNXConfig   `mapstructure:"onnx"`
	Answer AnswerConfig `mapstructure:"answer"`
	Log    LogConfig    `mapstructure:"log"`
}

// ModelConfig locates the pretrained model and its tokenizer.
type ModelConfig struct {
	Path      string `mapstructure:"path"`
	Tokenizer string `mapstructure:"tokenizer"`
	// TokenizerKind is "wordpiece" or "whitespace".
	TokenizerKind string `mapstructure:"tokenizerKind"`
	Scorer        string `mapstructure:"scorer"`
	MaxSeqLen     int    `mapstructure:"maxSeqLen"`
}

// ONNXConfig stores ONNX Runtime session settings.
type ONNXConfig struct {
	ExecutionProvider string `mapstructure:"executionProvider"`
	DeviceID          int    `mapstructure:"deviceID"`
	SharedLibraryPath string `mapstructure:"sharedLibraryPath"`
	IntraOpThreads    int    `mapstructure:"intraOpThreads"`
}

// AnswerConfig selects how the answer span is resolved from logits.
type AnswerConfig struct {
	Strategy     string `mapstructure:"strategy"`
	MaxAnswerLen int    `mapstructure:"maxAnswerLen"`
}

// LogConfig stores logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

var (
	ErrInvalidScorer    = errors.New("invalid scorer")
	ErrInvalidTokenizer = errors.New("invalid tokenizer kind")
	ErrInvalidStrategy  = errors.New("invalid answer strategy")
	ErrInvalidLength    = errors.New("invalid length setting")
)

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"model":          "model.path",
	"tokenizer":      "model.tokenizer",
	"tokenizer-kind": "model.tokenizerKind",
	"scorer":         "model.scorer",
	"strategy":       "answer.strategy",
	"log-level":      "log.level",
}

// LoadConfig reads configuration from file, environment variables and, when
// flags is non-nil, command line flags.
func LoadConfig(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("..")
		v.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		v.AddConfigPath(internal.DefaultConfigPath)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetDefault("model.path", internal.DefaultModelPath)
	v.SetDefault("model.tokenizer", internal.DefaultVocabPath)
	v.SetDefault("model.tokenizerKind", "wordpiece")
	v.SetDefault("model.scorer", "onnx")
	v.SetDefault("model.maxSeqLen", internal.DefaultMaxPositions)
	v.SetDefault("onnx.executionProvider", "cpu")
	v.SetDefault("onnx.deviceID", 0)
	v.SetDefault("onnx.sharedLibraryPath", "")
	v.SetDefault("onnx.intraOpThreads", 0)
	v.SetDefault("answer.strategy", "argmax")
	v.SetDefault("answer.maxAnswerLen", internal.DefaultMaxAnswerLen)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)

	v.SetEnvPrefix(internal.DefaultEnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // model.maxSeqLen becomes BERTQA_MODEL_MAXSEQLEN
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Model.Scorer)) {
	case "onnx", "hash", "dev":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidScorer, c.Model.Scorer)
	}
	switch strings.ToLower(strings.TrimSpace(c.Model.TokenizerKind)) {
	case "", "wordpiece", "whitespace":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidTokenizer, c.Model.TokenizerKind)
	}
	switch strings.ToLower(strings.TrimSpace(c.Answer.Strategy)) {
	case "argmax", "joint":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStrategy, c.Answer.Strategy)
	}
	if c.Model.MaxSeqLen < 1 || c.Model.MaxSeqLen > internal.DefaultMaxPositions {
		return fmt.Errorf("%w: model.maxSeqLen must be in 1..%d, got %d", ErrInvalidLength, internal.DefaultMaxPositions, c.Model.MaxSeqLen)
	}
	if c.Answer.MaxAnswerLen < 1 {
		return fmt.Errorf("%w: answer.maxAnswerLen must be positive, got %d", ErrInvalidLength, c.Answer.MaxAnswerLen)
	}
	return nil
}
