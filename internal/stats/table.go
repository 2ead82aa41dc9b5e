// Package stats keeps the per-control press tally and renders the status
// readout.
package stats

import (
	"fmt"
	"strings"

	"github.com/mj1618/press-monkey/internal/arena"
)

// StatusHeader is the first line of every status readout.
const StatusHeader = "Button Presses:"

// Entry is one row of the press tally.
type Entry struct {
	Handle arena.Handle `yaml:"-"     json:"-"`
	Name   string       `yaml:"name"  json:"name"`
	Count  int          `yaml:"count" json:"count"`
}

// Table maps control handles to press counts in first-seen order. Counts
// only grow; rows are only dropped through Purge.
type Table struct {
	index   map[arena.Handle]int
	entries []Entry
}

// NewTable returns an empty tally.
func NewTable() *Table {
	return &Table{index: make(map[arena.Handle]int)}
}

// Ensure creates a zero row for h if it has none and refreshes the display
// name otherwise. It reports whether a row was created.
func (t *Table) Ensure(h arena.Handle, name string) bool {
	if i, ok := t.index[h]; ok {
		if name != "" {
			t.entries[i].Name = name
		}
		return false
	}
	t.index[h] = len(t.entries)
	t.entries = append(t.entries, Entry{Handle: h, Name: name})
	return true
}

// Increment adds one press for h, creating the row if needed, and returns
// the new count.
func (t *Table) Increment(h arena.Handle, name string) int {
	t.Ensure(h, name)
	i := t.index[h]
	t.entries[i].Count++
	return t.entries[i].Count
}

// Count returns the presses recorded for h.
func (t *Table) Count(h arena.Handle) int {
	if i, ok := t.index[h]; ok {
		return t.entries[i].Count
	}
	return 0
}

// Has reports whether h has a row.
func (t *Table) Has(h arena.Handle) bool {
	_, ok := t.index[h]
	return ok
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.entries) }

// Total returns the sum of all counts.
func (t *Table) Total() int {
	total := 0
	for _, e := range t.entries {
		total += e.Count
	}
	return total
}

// Entries returns a copy of the rows in first-seen order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Purge drops every row whose handle live reports false and returns how
// many were dropped.
func (t *Table) Purge(live func(arena.Handle) bool) int {
	kept := t.entries[:0]
	dropped := 0
	for _, e := range t.entries {
		if live(e.Handle) {
			kept = append(kept, e)
			continue
		}
		dropped++
	}
	if dropped == 0 {
		return 0
	}
	// Clear the tail so dropped rows do not linger in the backing array.
	for i := len(kept); i < len(t.entries); i++ {
		t.entries[i] = Entry{}
	}
	t.entries = kept
	t.index = make(map[arena.Handle]int, len(kept))
	for i, e := range kept {
		t.index[e.Handle] = i
	}
	return dropped
}

// Render formats the tally as the status readout.
func (t *Table) Render() string {
	var b strings.Builder
	b.WriteString(StatusHeader)
	b.WriteByte('\n')
	for _, e := range t.entries {
		fmt.Fprintf(&b, "%s: %d\n", e.Name, e.Count)
	}
	return b.String()
}
