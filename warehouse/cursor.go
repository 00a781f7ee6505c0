package warehouse

import (
	"iter"

	"github.com/TheBitDrifter/table"
)

var _ rowIterator = &Cursor{}

// Cursor walks the rows of every archetype matching a query. The storage
// stays locked from the first Next until iteration is exhausted or Reset
// is called, so structural changes made meanwhile are queued.
type Cursor struct {
	query   QueryNode
	storage Storage

	matched []archetype
	arch    int // index into matched
	visited int // rows of matched[arch] visited so far
	rows    int // length of matched[arch] when entered
	live    bool
}

// Next advances to the next matching row.
func (c *Cursor) Next() bool {
	if !c.live {
		c.start()
	} else if c.visited < c.rows {
		c.visited++
		return true
	} else {
		c.arch++
		c.visited = 0
	}
	for ; c.arch < len(c.matched); c.arch++ {
		c.rows = c.matched[c.arch].table.Length()
		if c.rows > 0 {
			c.visited = 1
			return true
		}
	}
	c.Reset()
	return false
}

// Entities yields the row index and table of every match.
func (c *Cursor) Entities() iter.Seq2[int, table.Table] {
	return func(yield func(int, table.Table) bool) {
		c.start()
		defer c.Reset()
		for ; c.arch < len(c.matched); c.arch++ {
			tbl := c.matched[c.arch].table
			c.rows = tbl.Length()
			for c.visited = 0; c.visited < c.rows; c.visited++ {
				if !yield(c.visited, tbl) {
					return
				}
			}
		}
	}
}

func (c *Cursor) start() {
	if c.live {
		return
	}
	c.matched = matchArchetypes(c.query, c.storage)
	c.arch, c.visited, c.rows = 0, 0, 0
	c.storage.Lock()
	c.live = true
}

// Reset rewinds the cursor and releases its hold on the storage.
func (c *Cursor) Reset() {
	wasLive := c.live
	c.matched = nil
	c.arch, c.visited, c.rows = 0, 0, 0
	c.live = false
	if wasLive {
		c.storage.Unlock()
	}
}

// row is the table and index of the current match.
func (c *Cursor) row() (int, table.Table) {
	if c.arch >= len(c.matched) {
		return -1, nil
	}
	return c.visited - 1, c.matched[c.arch].table
}

func (c *Cursor) CurrentEntity() (int, table.Table) {
	return c.row()
}

func (c *Cursor) RemainingInArchetype() int {
	return c.rows - c.visited
}

// TotalMatched counts matching rows without moving the cursor.
func (c *Cursor) TotalMatched() int {
	return Count(c.storage, c.query)
}

func matchArchetypes(node QueryNode, sto Storage) []archetype {
	var matched []archetype
	for _, arch := range sto.(*storage).archetypes.list {
		if node.Evaluate(arch, sto) {
			matched = append(matched, arch)
		}
	}
	return matched
}
