// Package tui provides a Bubble Tea terminal UI for kanjicrawl: the floor
// map, a side panel of player stats, the fight panel with its answer input
// and a scrolling message log.
package tui

// History remembers submitted command lines for Up/Down recall. It is a
// bounded ring; the oldest entry is dropped once it is full.
type History struct {
	ring  []string
	start int // index of the oldest entry
	n     int
	pos   int // steps back from the newest entry; 0 means not navigating
}

// NewHistory creates a history holding at most size entries.
func NewHistory(size int) *History {
	if size < 1 {
		size = 1
	}
	return &History{ring: make([]string, size)}
}

// Len returns the number of remembered lines.
func (h *History) Len() int { return h.n }

// at returns the i-th entry, oldest first.
func (h *History) at(i int) string {
	return h.ring[(h.start+i)%len(h.ring)]
}

// Push remembers line. Blank lines and repeats of the newest entry are
// ignored.
func (h *History) Push(line string) {
	if line == "" || (h.n > 0 && h.at(h.n-1) == line) {
		return
	}
	if h.n < len(h.ring) {
		h.ring[(h.start+h.n)%len(h.ring)] = line
		h.n++
		return
	}
	h.ring[h.start] = line
	h.start = (h.start + 1) % len(h.ring)
}

// Prev steps back to an older line, stopping at the oldest.
func (h *History) Prev() (string, bool) {
	if h.n == 0 {
		return "", false
	}
	if h.pos < h.n {
		h.pos++
	}
	return h.at(h.n - h.pos), true
}

// Next steps forward to a newer line. Stepping past the newest returns
// false, meaning the input should be cleared.
func (h *History) Next() (string, bool) {
	if h.pos <= 1 {
		h.pos = 0
		return "", false
	}
	h.pos--
	return h.at(h.n - h.pos), true
}

// ResetCursor ends navigation.
func (h *History) ResetCursor() { h.pos = 0 }
