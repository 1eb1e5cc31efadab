package importer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens an existing SQLite database file.
func OpenSQLite(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("importer: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("importer: open %s: %w", path, err)
	}
	return db, nil
}

// ReadFile reads a dictionary dump from path: a .tsv, .csv or .txt export,
// or a SQLite database otherwise.
func ReadFile(ctx context.Context, path string) (*Dump, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".csv", ".txt":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("importer: %w", err)
		}
		defer f.Close()
		return ReadDelimited(f)
	}
	db, err := OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return ReadDB(ctx, db)
}

// ReadDB reads the first table of a dictionary database, detecting its
// columns by name.
func ReadDB(ctx context.Context, db *sql.DB) (*Dump, error) {
	var table string
	err := db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' LIMIT 1",
	).Scan(&table)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.New("importer: database has no tables")
	}
	if err != nil {
		return nil, fmt.Errorf("importer: find table: %w", err)
	}

	names, err := tableColumns(ctx, db, table)
	if err != nil {
		return nil, err
	}
	cols, err := DetectColumns(names)
	if err != nil {
		return nil, err
	}

	sel := []string{quoteIdent(cols.Surface), quoteIdent(cols.Reading), "NULL", "NULL"}
	if cols.Meaning != "" {
		sel[2] = quoteIdent(cols.Meaning)
	}
	if cols.Score != "" {
		sel[3] = quoteIdent(cols.Score)
	}
	q := "SELECT " + strings.Join(sel, ", ") + " FROM " + quoteIdent(table)
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("importer: read %s: %w", table, err)
	}
	defer rows.Close()

	d := &Dump{Columns: cols}
	for rows.Next() {
		var surface, reading, meaning sql.NullString
		var score any
		if err := rows.Scan(&surface, &reading, &meaning, &score); err != nil {
			return nil, fmt.Errorf("importer: scan %s: %w", table, err)
		}
		rec := Record{Surface: surface.String, Reading: reading.String, Meaning: meaning.String}
		rec.Score, rec.HasScore = toFloat(score)
		d.Records = append(d.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("importer: read %s: %w", table, err)
	}
	return d, nil
}

// ReadKindleFile returns the distinct Japanese words of a Kindle vocab.db.
func ReadKindleFile(ctx context.Context, path string) ([]string, error) {
	db, err := OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return ReadKindleDB(ctx, db)
}

// ReadKindleDB returns the distinct Japanese words of a Kindle vocabulary
// database.
func ReadKindleDB(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT DISTINCT word FROM WORDS WHERE lang = 'ja' ORDER BY word")
	if err != nil {
		return nil, fmt.Errorf("importer: read kindle words: %w", err)
	}
	defer rows.Close()

	var words []string
	for rows.Next() {
		var w sql.NullString
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("importer: scan kindle word: %w", err)
		}
		if w.Valid && w.String != "" {
			words = append(words, w.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("importer: read kindle words: %w", err)
	}
	return words, nil
}

func tableColumns(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, fmt.Errorf("importer: columns of %s: %w", table, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("importer: columns of %s: %w", table, err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// toFloat converts a score cell, which SQLite may store as text.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case []byte:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(x)), 64)
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}
