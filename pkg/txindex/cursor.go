package txindex

import (
	"github.com/google/uuid"
	"github.com/txsociety/mentat/pkg/core"
)

// Cursor walks one snapshot of an account's transaction range. It is an
// explicit iterator, not tied to any goroutine: the consumer pulls items at
// its own pace and drops the cursor with Close when done or cancelled.
// A cursor is not restartable; reissue the range query instead.
type Cursor struct {
	id    uuid.UUID
	index *Index
	items []core.Transaction
	desc  bool
	pos   int
	done  bool
}

func (x *Index) newCursor(items []core.Transaction, desc bool) *Cursor {
	c := &Cursor{
		id:    uuid.New(),
		index: x,
		items: items,
		desc:  desc,
	}
	x.cursors.Lock()
	x.openCursors[c.id] = struct{}{}
	x.cursors.Unlock()
	return c
}

// Len is the total number of items the cursor will deliver.
func (c *Cursor) Len() int {
	return len(c.items)
}

// Next returns the next transaction, or false once the range is exhausted.
// Exhaustion closes the cursor.
func (c *Cursor) Next() (core.Transaction, bool) {
	if c.done || c.pos >= len(c.items) {
		c.Close()
		return core.Transaction{}, false
	}
	i := c.pos
	if c.desc {
		i = len(c.items) - 1 - c.pos
	}
	c.pos++
	return c.items[i], true
}

// Close releases the cursor. Safe to call more than once.
func (c *Cursor) Close() {
	if c.done {
		return
	}
	c.done = true
	c.items = nil
	c.index.cursors.Lock()
	delete(c.index.openCursors, c.id)
	c.index.cursors.Unlock()
}

// OpenCursors is the number of cursors not yet closed, used to verify that
// finished and cancelled streams release their state.
func (x *Index) OpenCursors() int {
	x.cursors.Lock()
	defer x.cursors.Unlock()
	return len(x.openCursors)
}
