package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nathoo/kanjicrawl/config"
)

func TestLoadFromReader_Empty(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LogLevel != config.LogInfo {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.Lexicon.Backend != config.BackendContent || cfg.Lexicon.Table != config.DefaultTable || cfg.Lexicon.MaxWordLength != 3 {
		t.Errorf("Lexicon = %+v", cfg.Lexicon)
	}
	if cfg.SaveDir == "" || cfg.LogFile == "" || cfg.ContentDir == "" {
		t.Errorf("paths not defaulted: %+v", cfg)
	}
	if cfg.Seed != 0 {
		t.Errorf("Seed = %d", cfg.Seed)
	}
}

func TestLoadFromReader_Full(t *testing.T) {
	t.Parallel()
	yaml := `
log_level: debug
log_file: /tmp/kc.log
save_dir: /tmp/kc-saves
content_dir: games/hard
seed: 42
lexicon:
  backend: postgres
  postgres_dsn: postgres://kc@localhost/kc
  table: words_n5
  preload: true
  frequency_list: /tmp/freq.tsv
  jmdict: /tmp/jmdict.db
  kindle_vocab: /tmp/vocab.db
  max_word_length: 4
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LogLevel != config.LogDebug || cfg.LogFile != "/tmp/kc.log" || cfg.SaveDir != "/tmp/kc-saves" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.ContentDir != "games/hard" || cfg.Seed != 42 {
		t.Errorf("content=%q seed=%d", cfg.ContentDir, cfg.Seed)
	}
	lx := cfg.Lexicon
	if lx.Backend != config.BackendPostgres || lx.Table != "words_n5" || !lx.Preload || lx.FrequencyList != "/tmp/freq.tsv" {
		t.Errorf("Lexicon = %+v", lx)
	}
	if lx.JMdict != "/tmp/jmdict.db" || lx.KindleVocab != "/tmp/vocab.db" || lx.MaxWordLength != 4 {
		t.Errorf("import settings = %+v", lx)
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader("colour: blue\n"))
	if err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

func TestLoadFromReader_ExpandsHome(t *testing.T) {
	t.Parallel()
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	cfg, err := config.LoadFromReader(strings.NewReader("save_dir: ~/kc\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SaveDir != filepath.Join(home, "kc") {
		t.Errorf("SaveDir = %q", cfg.SaveDir)
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		yaml string
		want []string
	}{
		{"bad log level", "log_level: loud\n", []string{"log_level"}},
		{"bad backend", "lexicon:\n  backend: sqlite\n", []string{"lexicon.backend"}},
		{"postgres without dsn", "lexicon:\n  backend: postgres\n", []string{"postgres_dsn"}},
		{"preload without postgres", "lexicon:\n  preload: true\n", []string{"preload"}},
		{"kindle without jmdict", "lexicon:\n  kindle_vocab: vocab.db\n", []string{"kindle_vocab"}},
		{"negative word length", "lexicon:\n  max_word_length: -1\n", []string{"max_word_length"}},
		{
			"several at once",
			"log_level: loud\nlexicon:\n  backend: postgres\n",
			[]string{"log_level", "postgres_dsn"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := config.LoadFromReader(strings.NewReader(tt.yaml))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			for _, w := range tt.want {
				if !strings.Contains(err.Error(), w) {
					t.Errorf("error should mention %q, got: %v", w, err)
				}
			}
		})
	}
}

func TestValidate_EmptyTable(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Lexicon.Table = ""
	if err := config.Validate(cfg); err == nil || !strings.Contains(err.Error(), "lexicon.table") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoad_File(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "kanjicrawl.yaml")
	if err := os.WriteFile(path, []byte("seed: 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Seed != 7 {
		t.Errorf("Seed = %d", cfg.Seed)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "config: open") {
		t.Fatalf("err = %v", err)
	}
}

func TestLogLevelIsValid(t *testing.T) {
	t.Parallel()
	for _, l := range []config.LogLevel{config.LogDebug, config.LogInfo, config.LogWarn, config.LogError} {
		if !l.IsValid() {
			t.Errorf("%q should be valid", l)
		}
	}
	if config.LogLevel("trace").IsValid() {
		t.Error("trace should be invalid")
	}
}
