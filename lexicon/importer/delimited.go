package importer

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadDelimited reads a dictionary export with a header row. The separator
// is a tab when the header contains one, a comma otherwise.
func ReadDelimited(r io.Reader) (*Dump, error) {
	br := bufio.NewReader(r)
	first, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("importer: read header: %w", err)
	}
	header, _, _ := strings.Cut(string(first), "\n")

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.Comment = '#'
	if strings.Contains(header, "\t") {
		cr.Comma = '\t'
	}

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("importer: empty dump")
	}
	if err != nil {
		return nil, fmt.Errorf("importer: read header: %w", err)
	}
	head[0] = strings.TrimPrefix(head[0], "\ufeff")
	cols, err := DetectColumns(head)
	if err != nil {
		return nil, err
	}
	pos := make(map[string]int, len(head))
	for i, h := range head {
		pos[h] = i
	}
	cell := func(row []string, col string) string {
		i, ok := pos[col]
		if col == "" || !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	d := &Dump{Columns: cols}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("importer: %w", err)
		}
		rec := Record{
			Surface: cell(row, cols.Surface),
			Reading: cell(row, cols.Reading),
			Meaning: cell(row, cols.Meaning),
		}
		if s := cell(row, cols.Score); s != "" {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				rec.Score, rec.HasScore = f, true
			}
		}
		d.Records = append(d.Records, rec)
	}
	return d, nil
}
