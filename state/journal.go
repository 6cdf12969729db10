// Package state holds the journaled contract state: custody balances and
// the undo log that makes every entry point all-or-nothing.
package state

import "fmt"

// Journal undo log of state mutations
type Journal struct {
	entries []func()
}

// NewJournal new journal
func NewJournal() *Journal {
	return &Journal{}
}

// Append records how to undo a mutation
func (j *Journal) Append(undo func()) {
	j.entries = append(j.entries, undo)
}

// Snapshot returns an identifier of the current journal position
func (j *Journal) Snapshot() int {
	return len(j.entries)
}

// RevertToSnapshot undoes every mutation recorded after snapshot id
func (j *Journal) RevertToSnapshot(id int) {
	if id < 0 || id > len(j.entries) {
		panic(fmt.Sprintf("revision id %v cannot be reverted", id))
	}
	for i := len(j.entries) - 1; i >= id; i-- {
		j.entries[i]()
		j.entries[i] = nil
	}
	j.entries = j.entries[:id]
}

// Commit forgets all undo entries
func (j *Journal) Commit() {
	for i := range j.entries {
		j.entries[i] = nil
	}
	j.entries = j.entries[:0]
}

// Length of pending entries
func (j *Journal) Length() int {
	return len(j.entries)
}
