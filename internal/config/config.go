package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	stemerrors "github.com/deidaraiorek/snowstem/internal/errors"
	"github.com/deidaraiorek/snowstem/internal/stemmer"
	"github.com/deidaraiorek/snowstem/internal/stemming"
	"github.com/deidaraiorek/snowstem/internal/tokenizer"
)

// Environment variables that override file settings.
const (
	EnvLanguage = "SNOWSTEM_LANGUAGE"
	EnvLogLevel = "SNOWSTEM_LOG_LEVEL"
	EnvDB       = "SNOWSTEM_DB"
)

// Config holds all configuration for snowstem.
type Config struct {
	Stemmer   StemmerConfig   `yaml:"stemmer"`
	Tokenizer TokenizerConfig `yaml:"tokenizer"`
	Storage   StorageConfig   `yaml:"storage"`
	Server    ServerConfig    `yaml:"server"`
	Batch     BatchConfig     `yaml:"batch"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// StemmerConfig selects the language and the annotations to stem.
type StemmerConfig struct {
	Language       string `yaml:"language"`
	AnnotationSet  string `yaml:"annotation_set"` // empty = default set
	AnnotationType string `yaml:"annotation_type"`
	SourceFeature  string `yaml:"source_feature"`
	CacheSize      int    `yaml:"cache_size"` // 0 disables the per-instance memo
	KeepStopWords  bool   `yaml:"keep_stop_words"`
}

// TokenizerConfig controls the tokenizer run ahead of stemming.
type TokenizerConfig struct {
	MinLength int      `yaml:"min_length"`
	MaxLength int      `yaml:"max_length"`            // 0 = unbounded
	StopWords []string `yaml:"stop_words,omitempty"` // empty = built-in English list
}

// New builds the tokenizer this section describes.
func (t TokenizerConfig) New() *tokenizer.Tokenizer {
	opts := []tokenizer.Option{tokenizer.WithLengthBounds(t.MinLength, t.MaxLength)}
	if len(t.StopWords) > 0 {
		opts = append(opts, tokenizer.WithStopWords(t.StopWords))
	}
	return tokenizer.NewTokenizer(opts...)
}

type StorageConfig struct {
	Backend string `yaml:"backend"` // "sqlite" or "bolt"
	Path    string `yaml:"path"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

type BatchConfig struct {
	Workers int `yaml:"workers"` // 0 = one per CPU
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
	File   string `yaml:"file"`   // optional, appended to
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Stemmer: StemmerConfig{
			Language:       stemmer.DefaultLanguage,
			AnnotationType: stemming.DefaultAnnotationType,
			SourceFeature:  stemming.DefaultSourceFeature,
			CacheSize:      stemmer.DefaultCacheSize,
		},
		Tokenizer: TokenizerConfig{
			MinLength: 1,
		},
		Storage: StorageConfig{
			Backend: "sqlite",
			Path:    filepath.Join(".snowstem", "documents.db"),
		},
		Server: ServerConfig{
			Addr:         "127.0.0.1:8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			MaxBodyBytes: 10 << 20,
		},
		Batch: BatchConfig{
			Workers: 0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, stemerrors.ConfigError(fmt.Sprintf("failed to read config %s", path), err).
			WithDetail("path", path)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, stemerrors.ConfigError(fmt.Sprintf("failed to parse config %s", path), err).
			WithDetail("path", path)
	}

	cfg.applyEnv()
	return cfg, nil
}

// LoadFromDir looks for snowstem.yaml, then .snowstem/config.yaml.
func LoadFromDir(dir string) (*Config, error) {
	for _, path := range []string{
		filepath.Join(dir, "snowstem.yaml"),
		filepath.Join(dir, ".snowstem", "config.yaml"),
	} {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	cfg := DefaultConfig()
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvLanguage)); v != "" {
		c.Stemmer.Language = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDB)); v != "" {
		c.Storage.Path = v
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if !stemmer.IsSupported(c.Stemmer.Language) {
		return stemerrors.UnsupportedLanguage(c.Stemmer.Language)
	}
	if err := c.StemmingConfig().Validate(); err != nil {
		return err
	}
	if c.Tokenizer.MinLength < 0 || c.Tokenizer.MaxLength < 0 {
		return stemerrors.ConfigError("tokenizer lengths must not be negative", nil)
	}
	if c.Tokenizer.MaxLength > 0 && c.Tokenizer.MaxLength < c.Tokenizer.MinLength {
		return stemerrors.ConfigError("tokenizer max_length is below min_length", nil)
	}
	switch c.Storage.Backend {
	case "", "sqlite", "bolt":
	default:
		return stemerrors.ConfigError(fmt.Sprintf("unknown storage backend %q", c.Storage.Backend), nil).
			WithSuggestion("use 'sqlite' or 'bolt'")
	}
	if c.Batch.Workers < 0 {
		return stemerrors.ConfigError("batch workers must not be negative", nil)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return stemerrors.ConfigError(fmt.Sprintf("unknown log level %q", c.Logging.Level), nil)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return stemerrors.ConfigError(fmt.Sprintf("unknown log format %q", c.Logging.Format), nil)
	}
	return nil
}

// StemmingConfig converts the stemmer section into a pass configuration.
func (c *Config) StemmingConfig() stemming.Config {
	return stemming.Config{
		Language:          c.Stemmer.Language,
		AnnotationSetName: c.Stemmer.AnnotationSet,
		AnnotationType:    c.Stemmer.AnnotationType,
		SourceFeature:     c.Stemmer.SourceFeature,
		CacheSize:         c.Stemmer.CacheSize,
		KeepStopWords:     c.Stemmer.KeepStopWords,
	}
}

// Save writes the configuration as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
