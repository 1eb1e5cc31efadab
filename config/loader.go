package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultTable is the vocabulary table used when none is configured.
const DefaultTable = "vocabulary"

// Default returns the configuration used when no file is given. Paths are
// rooted at ~/.kanjicrawl.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, fills in defaults and
// validates the result. An empty document yields the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}
	if cfg.SaveDir == "" {
		errs = append(errs, errors.New("save_dir is required"))
	}

	lx := cfg.Lexicon
	if lx.Backend != "" && !lx.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("lexicon.backend %q is invalid; valid values: content, postgres", lx.Backend))
	}
	if lx.Backend == BackendPostgres && lx.PostgresDSN == "" {
		errs = append(errs, errors.New("lexicon.backend postgres requires lexicon.postgres_dsn"))
	}
	if lx.Table == "" {
		errs = append(errs, errors.New("lexicon.table must not be empty"))
	}
	if lx.KindleVocab != "" && lx.JMdict == "" {
		errs = append(errs, errors.New("lexicon.kindle_vocab requires lexicon.jmdict for readings"))
	}
	if lx.MaxWordLength < 0 {
		errs = append(errs, fmt.Errorf("lexicon.max_word_length %d must not be negative", lx.MaxWordLength))
	}
	if lx.Preload && lx.Backend != BackendPostgres {
		errs = append(errs, errors.New("lexicon.preload only applies to the postgres backend"))
	}

	return errors.Join(errs...)
}

func applyDefaults(cfg *Config) {
	home := homeDir()
	if cfg.LogLevel == "" {
		cfg.LogLevel = LogInfo
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(home, "kanjicrawl.log")
	}
	if cfg.SaveDir == "" {
		cfg.SaveDir = filepath.Join(home, "saves")
	}
	if cfg.ContentDir == "" {
		cfg.ContentDir = filepath.Join("content", "default")
	}
	if cfg.Lexicon.Backend == "" {
		cfg.Lexicon.Backend = BackendContent
	}
	if cfg.Lexicon.Table == "" {
		cfg.Lexicon.Table = DefaultTable
	}
	cfg.LogFile = expandHome(cfg.LogFile)
	cfg.SaveDir = expandHome(cfg.SaveDir)
	cfg.ContentDir = expandHome(cfg.ContentDir)
	if cfg.Lexicon.MaxWordLength == 0 {
		cfg.Lexicon.MaxWordLength = 3
	}
	cfg.Lexicon.FrequencyList = expandHome(cfg.Lexicon.FrequencyList)
	cfg.Lexicon.JMdict = expandHome(cfg.Lexicon.JMdict)
	cfg.Lexicon.KindleVocab = expandHome(cfg.Lexicon.KindleVocab)
}

// homeDir is ~/.kanjicrawl, or .kanjicrawl when there is no home.
func homeDir() string {
	h, err := os.UserHomeDir()
	if err != nil {
		return ".kanjicrawl"
	}
	return filepath.Join(h, ".kanjicrawl")
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	h, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(h, strings.TrimPrefix(p, "~"))
}
