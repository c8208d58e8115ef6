// Copyright 2026 The Lun Authors
// SPDX-License-Identifier: MIT

package lunvm

// table is a Lun table: a mapping from non-nil keys to non-nil values.
// Tables are reference values; the host garbage collector owns them.
type table struct {
	entries map[any]any
}

func newTable() *table {
	return &table{entries: make(map[any]any)}
}

// get returns the value stored under key, or nil if absent.
// A nil key reads as nil rather than failing;
// only storing under nil is an error.
func (t *table) get(key any) any {
	if key == nil {
		return nil
	}
	return t.entries[key]
}

// set stores value under key.
// Storing nil removes the key,
// so a table never holds nil values.
func (t *table) set(key, value any) error {
	if key == nil {
		return &Error{Message: "table index is nil"}
	}
	if value == nil {
		delete(t.entries, key)
		return nil
	}
	t.entries[key] = value
	return nil
}

// length returns the table's sequence length:
// the number of consecutive number keys counting up from 1.
func (t *table) length() int {
	n := 0
	for {
		if _, ok := t.entries[float64(n+1)]; !ok {
			return n
		}
		n++
	}
}
