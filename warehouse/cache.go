package warehouse

import (
	"iter"
	"slices"
)

var _ Cache[any] = &SimpleCache[any]{}

// SimpleCache keeps items in registration order. Slot 0 holds the zero
// value so an index of 0 can mean "unset" to callers.
type SimpleCache[T any] struct {
	items       []T
	keys        []string
	itemIndices map[string]int
	maxCapacity int
}

func newSimpleCache[T any](capacity int) *SimpleCache[T] {
	return &SimpleCache[T]{
		items:       make([]T, 1, capacity+1),
		keys:        make([]string, 1, capacity+1),
		itemIndices: make(map[string]int, capacity),
		maxCapacity: capacity,
	}
}

func (c *SimpleCache[T]) GetIndex(key string) (int, bool) {
	index, ok := c.itemIndices[key]
	return index, ok
}

func (c *SimpleCache[T]) GetItem(index int) *T {
	return &c.items[index]
}

func (c *SimpleCache[T]) GetItem32(index uint32) *T {
	return &c.items[index]
}

// Register stores item under key and returns its index. Registering an
// existing key overwrites the item in place and keeps its index.
func (c *SimpleCache[T]) Register(key string, item T) (int, error) {
	if idx, ok := c.itemIndices[key]; ok {
		c.items[idx] = item
		return idx, nil
	}
	if len(c.itemIndices) >= c.maxCapacity {
		return -1, CacheCapacityError{Capacity: c.maxCapacity}
	}
	c.items = append(c.items, item)
	c.keys = append(c.keys, key)
	idx := len(c.items) - 1
	c.itemIndices[key] = idx
	return idx, nil
}

// Keys returns the registered keys in index order.
func (c *SimpleCache[T]) Keys() []string {
	return slices.Clone(c.keys[1:])
}

// All yields every key and item in index order.
func (c *SimpleCache[T]) All() iter.Seq2[string, *T] {
	return func(yield func(string, *T) bool) {
		for i := 1; i < len(c.items); i++ {
			if !yield(c.keys[i], &c.items[i]) {
				return
			}
		}
	}
}

func (c *SimpleCache[T]) Len() int {
	return len(c.itemIndices)
}

func (c *SimpleCache[T]) Clear() {
	fresh := newSimpleCache[T](c.maxCapacity)
	*c = *fresh
}
