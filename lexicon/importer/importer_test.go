package importer

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/nathoo/kanjicrawl/types"
)

const jmdictTSV = "word\treading\tmeaning\tfrequency\n" +
	"水\tみず\twater\t5\n" +
	"今日\tきょう\ttoday\t4\n" +
	"今日\tこんにち\tthese days\t1\n" +
	"図書館\tとしょかん\tlibrary\t2\n" +
	"自動販売機\tじどうはんばいき\tvending machine\t5\n" +
	"ABC\tえーびーしー\tletters\t5\n" +
	"空\t\tsky\t5\n" +
	"カメラ\tカメラ\tcamera\t5\n" +
	"ねこ\tネコ\tcat\t\n"

const jmdictCSV = "term,kana,gloss,frequency_score,frequency\n" +
	"山,やま,mountain,150,1\n" +
	"先生,せんせい,teacher,1200,5\n" +
	"練習,れんしゅう;けいこ,practice,4000,5\n"

func readTSV(t *testing.T) *Dump {
	t.Helper()
	d, err := ReadDelimited(strings.NewReader(jmdictTSV))
	if err != nil {
		t.Fatalf("ReadDelimited: %v", err)
	}
	return d
}

func find(entries []types.VocabEntry, surface string) (types.VocabEntry, bool) {
	for _, e := range entries {
		if e.Surface == surface {
			return e, true
		}
	}
	return types.VocabEntry{}, false
}

func TestDetectColumns(t *testing.T) {
	tests := []struct {
		name    string
		cols    []string
		want    Columns
		wantErr bool
	}{
		{
			"jmdict names",
			[]string{"id", "Word", "Reading", "Meaning", "Frequency"},
			Columns{Surface: "Word", Reading: "Reading", Meaning: "Meaning", Score: "Frequency", Kind: ScoreFrequency},
			false,
		},
		{
			"score wins over frequency",
			[]string{"term", "kana", "gloss", "frequency", "frequency_score"},
			Columns{Surface: "term", Reading: "kana", Meaning: "gloss", Score: "frequency_score", Kind: ScoreRank},
			false,
		},
		{
			"surface falls back to first column",
			[]string{"kanji", "reading"},
			Columns{Surface: "kanji", Reading: "reading"},
			false,
		},
		{"no reading", []string{"word", "meaning"}, Columns{Surface: "word", Meaning: "meaning"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectColumns(tt.cols)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("DetectColumns = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReadDelimitedErrors(t *testing.T) {
	if _, err := ReadDelimited(strings.NewReader("")); err == nil {
		t.Error("empty input should fail")
	}
	_, err := ReadDelimited(strings.NewReader("word,meaning\n水,water\n"))
	if !errors.Is(err, ErrNoReadingColumn) {
		t.Errorf("err = %v, want ErrNoReadingColumn", err)
	}
}

func TestEntries(t *testing.T) {
	entries, st := Entries(readTSV(t), Options{})
	if st.Read != 9 || st.Kept != 4 || st.Skipped != 4 {
		t.Errorf("stats = %s", st)
	}

	tests := []struct {
		surface  string
		readings []string
		gloss    string
		tier     int
	}{
		{"水", []string{"みず"}, "water", 1},
		{"今日", []string{"きょう", "こんにち"}, "today", 1},
		{"図書館", []string{"としょかん"}, "library", 3},
		{"ねこ", []string{"ねこ"}, "cat", 1},
	}
	for _, tt := range tests {
		t.Run(tt.surface, func(t *testing.T) {
			e, ok := find(entries, tt.surface)
			if !ok {
				t.Fatalf("%s missing from %v", tt.surface, entries)
			}
			if !slices.Equal(e.Readings, tt.readings) || e.Gloss != tt.gloss || e.Tier != tt.tier {
				t.Errorf("entry = %+v", e)
			}
			if e.ID != tt.surface+"/"+tt.readings[0] {
				t.Errorf("ID = %q", e.ID)
			}
		})
	}
	for _, dropped := range []string{"自動販売機", "ABC", "空", "カメラ"} {
		if _, ok := find(entries, dropped); ok {
			t.Errorf("%s should have been skipped", dropped)
		}
	}
}

func TestEntriesFrequencyScore(t *testing.T) {
	d, err := ReadDelimited(strings.NewReader(jmdictCSV))
	if err != nil {
		t.Fatal(err)
	}
	if d.Columns.Kind != ScoreRank {
		t.Fatalf("kind = %v, want ScoreRank", d.Columns.Kind)
	}
	entries, _ := Entries(d, Options{})
	want := map[string]int{"山": 1, "先生": 2, "練習": 3}
	for surface, tier := range want {
		e, ok := find(entries, surface)
		if !ok || e.Tier != tier {
			t.Errorf("%s = %+v, want tier %d", surface, e, tier)
		}
	}
	if e, _ := find(entries, "練習"); !slices.Equal(e.Readings, []string{"れんしゅう", "けいこ"}) {
		t.Errorf("split readings = %v", e.Readings)
	}
}

func TestEntriesFrequencyList(t *testing.T) {
	freqs := map[string]float64{"図書館": 5000, "水": 10}
	entries, _ := Entries(readTSV(t), Options{Frequencies: freqs})
	want := map[string]int{"図書館": 1, "水": 3, "今日": 1}
	for surface, tier := range want {
		if e, _ := find(entries, surface); e.Tier != tier {
			t.Errorf("%s tier = %d, want %d", surface, e.Tier, tier)
		}
	}
}

func TestEntriesMaxLength(t *testing.T) {
	entries, _ := Entries(readTSV(t), Options{MaxLength: 5})
	if e, ok := find(entries, "自動販売機"); !ok || e.Tier != 1 {
		t.Errorf("long word = %+v, %v", e, ok)
	}
	entries, _ = Entries(readTSV(t), Options{MaxLength: 1})
	if len(entries) != 1 || entries[0].Surface != "水" {
		t.Errorf("entries = %v", entries)
	}
}

func TestKindleEntries(t *testing.T) {
	words := []string{"水", "図書館", "ねこ", "未知", "水"}
	entries, st := KindleEntries(words, readTSV(t), Options{})
	if st.Read != 4 || st.Kept != 2 || st.Skipped != 2 {
		t.Errorf("stats = %s", st)
	}
	if e, ok := find(entries, "水"); !ok || e.Tier != 1 || e.Gloss != "water" {
		t.Errorf("水 = %+v", e)
	}
	if e, ok := find(entries, "図書館"); !ok || e.Tier != 2 {
		t.Errorf("図書館 = %+v", e)
	}
}

type recordingUpserter struct {
	batches []int
	failAt  int
}

func (u *recordingUpserter) Upsert(_ context.Context, entries []types.VocabEntry, _ map[string]float64) (int, error) {
	u.batches = append(u.batches, len(entries))
	if u.failAt > 0 && len(u.batches) == u.failAt {
		return 0, errors.New("connection reset")
	}
	return len(entries), nil
}

func TestWrite(t *testing.T) {
	entries := make([]types.VocabEntry, 5)
	tests := []struct {
		name    string
		size    int
		failAt  int
		batches []int
		written int
		wantErr bool
	}{
		{"batches of two", 2, 0, []int{2, 2, 1}, 5, false},
		{"default size", 0, 0, []int{5}, 5, false},
		{"stops on failure", 2, 2, []int{2, 2}, 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &recordingUpserter{failAt: tt.failAt}
			n, err := Write(context.Background(), u, entries, nil, tt.size)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if n != tt.written || !slices.Equal(u.batches, tt.batches) {
				t.Errorf("written %d in %v, want %d in %v", n, u.batches, tt.written, tt.batches)
			}
		})
	}
}

func TestWriteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	u := &recordingUpserter{}
	if _, err := Write(ctx, u, make([]types.VocabEntry, 3), nil, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
	if len(u.batches) != 0 {
		t.Errorf("wrote %v after cancel", u.batches)
	}
}

func createDB(t *testing.T, name string, stmts ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("%s: %v", s, err)
		}
	}
	return path
}

func TestReadFileSQLite(t *testing.T) {
	path := createDB(t, "jmdict.db",
		`CREATE TABLE entries (id INTEGER PRIMARY KEY, Word TEXT, Kana TEXT, Definitions TEXT, freq TEXT)`,
		`INSERT INTO entries (Word, Kana, Definitions, freq) VALUES
			('水', 'みず', 'water', '5'),
			('図書館', 'としょかん', 'library', '2'),
			('猫', 'ねこ', NULL, NULL)`,
	)
	d, err := ReadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := Columns{Surface: "Word", Reading: "Kana", Meaning: "Definitions", Score: "freq", Kind: ScoreFrequency}
	if d.Columns != want {
		t.Errorf("columns = %+v", d.Columns)
	}
	if len(d.Records) != 3 {
		t.Fatalf("records = %v", d.Records)
	}
	if r := d.Records[0]; r.Surface != "水" || r.Reading != "みず" || !r.HasScore || r.Score != 5 {
		t.Errorf("first record = %+v", r)
	}
	if r := d.Records[2]; r.HasScore || r.Meaning != "" {
		t.Errorf("null cells = %+v", r)
	}

	entries, _ := Entries(d, Options{})
	if e, ok := find(entries, "図書館"); !ok || e.Tier != 3 {
		t.Errorf("図書館 = %+v", e)
	}
}

func TestReadFileDelimited(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jmdict.csv")
	if err := os.WriteFile(path, []byte(jmdictCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := ReadFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Records) != 3 || d.Columns.Reading != "kana" {
		t.Errorf("dump = %+v", d)
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile(context.Background(), filepath.Join(t.TempDir(), "none.db")); err == nil {
		t.Error("missing database should fail")
	}
}

func TestReadKindleFile(t *testing.T) {
	path := createDB(t, "vocab.db",
		`CREATE TABLE WORDS (id TEXT PRIMARY KEY, word TEXT, stem TEXT, lang TEXT)`,
		`INSERT INTO WORDS VALUES
			('ja:水', '水', '水', 'ja'),
			('ja:図書館', '図書館', '図書館', 'ja'),
			('en:water', 'water', 'water', 'en'),
			('ja:水2', '水', '水', 'ja')`,
	)
	words, err := ReadKindleFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadKindleFile: %v", err)
	}
	if !slices.Equal(words, []string{"図書館", "水"}) && !slices.Equal(words, []string{"水", "図書館"}) {
		t.Errorf("words = %v", words)
	}
	if len(words) != 2 {
		t.Errorf("want 2 distinct japanese words, got %v", words)
	}
}
