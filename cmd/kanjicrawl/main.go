// Kanjicrawl is a terminal dungeon crawler whose fights are Japanese
// reading quizzes.
// Usage: kanjicrawl [--version] [--plain] [--script <file>] [--trace] [--config <file>]
//
//	[--seed <n>] [--load <slot>] [--seed-db] [content_directory]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/nathoo/kanjicrawl/cli"
	"github.com/nathoo/kanjicrawl/config"
	"github.com/nathoo/kanjicrawl/engine"
	"github.com/nathoo/kanjicrawl/engine/events"
	"github.com/nathoo/kanjicrawl/engine/save"
	"github.com/nathoo/kanjicrawl/lexicon"
	"github.com/nathoo/kanjicrawl/lexicon/importer"
	"github.com/nathoo/kanjicrawl/lexicon/postgres"
	"github.com/nathoo/kanjicrawl/loader"
	"github.com/nathoo/kanjicrawl/observe"
	"github.com/nathoo/kanjicrawl/tui"
	"github.com/nathoo/kanjicrawl/types"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = "Usage: kanjicrawl [--version] [--plain] [--script <file>] [--trace] [--config <file>] [--seed <n>] [--load <slot>] [--seed-db] [content_directory]\n"

type options struct {
	plain      bool
	trace      bool
	seedDB     bool
	scriptFile string
	configFile string
	loadSlot   string
	seed       int64
	contentDir string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts, code, ok := parseArgs(os.Args[1:])
	if !ok {
		return code
	}

	cfg := config.Default()
	if opts.configFile != "" {
		var err error
		cfg, err = config.Load(opts.configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "kanjicrawl: %v\n", err)
			return 1
		}
	}
	if opts.contentDir == "" {
		opts.contentDir = cfg.ContentDir
	}
	if opts.seed == 0 {
		opts.seed = cfg.Seed
	}
	if opts.seed == 0 {
		opts.seed = time.Now().UnixNano()
	}

	// The full-screen interface owns the terminal, so it logs to a file.
	textMode := opts.plain || opts.scriptFile != "" || opts.seedDB || !isTerminal()
	logOut := io.Writer(os.Stderr)
	if !textMode {
		f, err := openLogFile(cfg.LogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "kanjicrawl: %v\n", err)
			return 1
		}
		defer f.Close()
		logOut = f
	}
	logger := newLogger(cfg.LogLevel, logOut)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	content, err := loader.Load(opts.contentDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading content: %v\n", err)
		return 1
	}
	for _, w := range content.Warnings {
		slog.Warn("content", "warning", w)
	}
	slog.Info("content loaded", "dir", opts.contentDir, "title", content.Info.Title, "words", len(content.Words))

	words := lexicon.NewMemory(content.Words)
	gw, cleanup, err := openLexicon(ctx, cfg, content, words, opts.seedDB, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening lexicon: %v\n", err)
		return 1
	}
	defer cleanup()
	if opts.seedDB {
		return 0
	}

	bus := &events.Bus{}
	sess, err := observe.NewSession(ctx, bus)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	eopts := engine.Options{
		Seed:    opts.seed,
		Balance: content.Balance,
		Info:    content.Info,
		Lexicon: gw,
		Logger:  logger,
		Bus:     bus,
	}
	eng, err := startRun(ctx, eopts, cfg.SaveDir, opts.loadSlot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	code = play(ctx, eng, cfg, opts, textMode)

	summary, err := sess.Summary(context.Background())
	if err != nil {
		slog.Warn("session summary unavailable", "err", err)
	} else if summary.Questions > 0 {
		fmt.Println()
		fmt.Println(summary)
	}
	if err := sess.Shutdown(context.Background()); err != nil {
		slog.Warn("metrics shutdown", "err", err)
	}
	return code
}

// parseArgs reads the command line. ok is false when the process should
// exit with code right away.
func parseArgs(args []string) (opts options, code int, ok bool) {
	next := func(i *int, flag string) (string, bool) {
		if *i+1 >= len(args) {
			fmt.Fprintf(os.Stderr, "%s requires a value\n", flag)
			return "", false
		}
		*i++
		return args[*i], true
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("kanjicrawl %s (commit %s, built %s)\n", version, commit, date)
			return opts, 0, false
		case "--help", "-h":
			fmt.Print(usage)
			return opts, 0, false
		case "--plain":
			opts.plain = true
		case "--trace":
			opts.trace = true
		case "--seed-db":
			opts.seedDB = true
		case "--script":
			v, ok := next(&i, "--script")
			if !ok {
				return opts, 1, false
			}
			opts.scriptFile = v
		case "--config":
			v, ok := next(&i, "--config")
			if !ok {
				return opts, 1, false
			}
			opts.configFile = v
		case "--load":
			v, ok := next(&i, "--load")
			if !ok {
				return opts, 1, false
			}
			opts.loadSlot = v
		case "--seed":
			v, ok := next(&i, "--seed")
			if !ok {
				return opts, 1, false
			}
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				fmt.Fprintf(os.Stderr, "--seed: %q is not an integer\n", v)
				return opts, 1, false
			}
			opts.seed = n
		default:
			if len(args[i]) > 1 && args[i][0] == '-' {
				fmt.Fprintf(os.Stderr, "unknown flag %s\n%s", args[i], usage)
				return opts, 1, false
			}
			if opts.contentDir == "" {
				opts.contentDir = args[i]
			}
		}
	}
	return opts, 0, true
}

// openLexicon returns the gateway the engine draws words from and a
// cleanup function. With the postgres backend the content words are used as
// a reading analyzer over the stored rows; with seedDB the table is filled
// instead and no gateway is returned.
func openLexicon(ctx context.Context, cfg *config.Config, content *loader.Content, words *lexicon.Memory,
	seedDB bool, logger *slog.Logger) (lexicon.Gateway, func(), error) {
	noop := func() {}
	lx := cfg.Lexicon
	if lx.Backend != config.BackendPostgres {
		if seedDB {
			return nil, noop, errors.New("--seed-db needs lexicon.backend: postgres")
		}
		if words.Len() == 0 {
			slog.Warn("content defines no words; every encounter will be skipped")
		}
		return words, noop, nil
	}

	store, err := postgres.New(ctx, lx.PostgresDSN, lx.Table)
	if err != nil {
		return nil, noop, err
	}
	slog.Info("lexicon connected", "backend", "postgres", "table", store.Table())

	if seedDB {
		err := seedStore(ctx, store, content.Words, lx)
		store.Close()
		return nil, noop, err
	}

	gw := lexicon.Refine(store, contentAnalyzer(words), logger)
	if !lx.Preload {
		return gw, store.Close, nil
	}

	tiers := make([]int, len(content.Balance.Tiers))
	for i := range tiers {
		tiers[i] = i + 1
	}
	mem, err := lexicon.Preload(ctx, gw, tiers)
	store.Close()
	if err != nil {
		return nil, noop, err
	}
	slog.Info("lexicon preloaded", "tiers", len(tiers), "words", mem.Len())
	return mem, noop, nil
}

// contentAnalyzer offers the readings the content gives a surface form as
// extra accepted readings for database rows.
func contentAnalyzer(words *lexicon.Memory) lexicon.Analyzer {
	return lexicon.AnalyzerFunc(func(ctx context.Context, surface string) ([]string, error) {
		matches, err := words.LookupSurface(ctx, surface)
		if err != nil {
			return nil, err
		}
		var out []string
		for _, m := range matches {
			out = append(out, m.Readings...)
		}
		return out, nil
	})
}

// seedStore fills the table from the configured dictionary, or from the
// content words when there is none. The frequency list, when configured,
// decides the tiers.
func seedStore(ctx context.Context, store *postgres.Store, words []types.VocabEntry, lx config.LexiconConfig) error {
	var freqs map[string]float64
	if lx.FrequencyList != "" {
		f, err := os.Open(lx.FrequencyList)
		if err != nil {
			return fmt.Errorf("opening frequency list: %w", err)
		}
		freqs, err = lexicon.ReadFrequencyList(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("reading frequency list %s: %w", lx.FrequencyList, err)
		}
		slog.Info("frequency list loaded", "path", lx.FrequencyList, "words", len(freqs))
	}

	entries, err := importEntries(ctx, words, lx, freqs)
	if err != nil {
		return err
	}
	n, err := importer.Write(ctx, store, entries, freqs, importer.DefaultBatchSize)
	if err != nil {
		return err
	}
	fmt.Printf("Seeded %d words into %s.\n", n, store.Table())
	return nil
}

// importEntries returns the entries --seed-db writes.
func importEntries(ctx context.Context, words []types.VocabEntry, lx config.LexiconConfig,
	freqs map[string]float64) ([]types.VocabEntry, error) {
	if lx.JMdict == "" {
		words = append([]types.VocabEntry(nil), words...)
		if freqs != nil {
			lexicon.ApplyFrequencies(words, freqs)
		}
		return words, nil
	}

	dict, err := importer.ReadFile(ctx, lx.JMdict)
	if err != nil {
		return nil, fmt.Errorf("reading dictionary %s: %w", lx.JMdict, err)
	}
	c := dict.Columns
	slog.Info("dictionary columns", "surface", c.Surface, "reading", c.Reading, "meaning", c.Meaning, "score", c.Score)
	opts := importer.Options{MaxLength: lx.MaxWordLength, Frequencies: freqs}

	var entries []types.VocabEntry
	var st importer.Stats
	if lx.KindleVocab != "" {
		kindle, err := importer.ReadKindleFile(ctx, lx.KindleVocab)
		if err != nil {
			return nil, fmt.Errorf("reading kindle vocabulary %s: %w", lx.KindleVocab, err)
		}
		entries, st = importer.KindleEntries(kindle, dict, opts)
	} else {
		entries, st = importer.Entries(dict, opts)
	}
	slog.Info("dictionary imported", "read", st.Read, "kept", st.Kept, "skipped", st.Skipped)
	fmt.Printf("Imported %s.\n", st)
	return entries, nil
}

// startRun begins a new run, or resumes the named save slot.
func startRun(ctx context.Context, opts engine.Options, saveDir, slot string) (*engine.Engine, error) {
	if slot == "" {
		return engine.New(ctx, opts)
	}
	data, err := save.ReadSlot(saveDir, slot)
	if err != nil {
		return nil, err
	}
	s, sd, err := save.Load(data)
	if err != nil {
		return nil, err
	}
	if sd.Game != "" && sd.Game != opts.Info.Title {
		slog.Warn("save was made with different content", "save", sd.Game, "content", opts.Info.Title)
	}
	return engine.Restore(s, opts)
}

// play runs the chosen front end and returns the exit code.
func play(ctx context.Context, eng *engine.Engine, cfg *config.Config, opts options, textMode bool) int {
	info := eng.Info
	header := func() {
		title := info.Title
		if info.Version != "" {
			title += " v" + info.Version
		}
		if info.Author != "" {
			title += " by " + info.Author
		}
		fmt.Printf("%s\n\n", title)
	}

	// Script mode: read commands from a file and echo them.
	if opts.scriptFile != "" {
		f, err := os.Open(opts.scriptFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening script: %v\n", err)
			return 1
		}
		defer f.Close()
		header()
		c := cli.New(eng, cfg.SaveDir)
		c.In = f
		c.EchoInput = true
		c.Trace = opts.trace
		c.Run(ctx)
		return 0
	}

	if textMode {
		header()
		c := cli.New(eng, cfg.SaveDir)
		c.Trace = opts.trace
		c.Run(ctx)
		return 0
	}

	if err := tui.Run(ctx, eng, cfg.SaveDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newLogger(level config.LogLevel, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
