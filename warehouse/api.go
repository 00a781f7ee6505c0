package warehouse

import (
	"iter"

	"github.com/TheBitDrifter/table"
)

// Storage owns every entity of one world and the archetype tables they
// live in. Structural changes are rejected with LockedStorageError while a
// lock is held; the Enqueue variants defer them instead.
type Storage interface {
	Entity(id int) (Entity, error)
	NewEntities(int, ...Component) ([]Entity, error)
	NewOrExistingArchetype(...Component) (Archetype, error)
	EnqueueNewEntities(int, ...Component) error
	DestroyEntities(...Entity) error
	EnqueueDestroyEntities(...Entity) error
	RowIndexFor(Component) uint32
	Archetypes() []Archetype
	Resources() *Resources
	Locked() bool
	Lock()
	Unlock()
	AddLock(bit uint32)
	RemoveLock(bit uint32)
}

// EntityDestroyCallback runs after an entity's row has been removed.
type EntityDestroyCallback func(Entity)

// Entity is a stable handle to one row of an archetype table. ID never
// changes; Index and Table follow the row as it moves.
type Entity interface {
	table.Entry
	Valid() bool
	Storage() Storage
	Components() []Component
	ComponentsAsString() string
	Parent() Entity
	SetParent(parent Entity, callback EntityDestroyCallback) error
	SetDestroyCallback(EntityDestroyCallback) error
	AddComponent(Component) error
	AddComponentWithValue(Component, any) error
	RemoveComponent(Component) error
	EnqueueAddComponent(Component) error
	EnqueueAddComponentWithValue(Component, any) error
	EnqueueRemoveComponent(Component) error
}

type Archetype interface {
	ID() uint32
	Table() table.Table
}

// Query builds a tree of nodes. The first node built becomes the root the
// query itself evaluates.
type Query interface {
	QueryNode
	And(items ...any) QueryNode
	Or(items ...any) QueryNode
	Not(items ...any) QueryNode
}

type QueryNode interface {
	Evaluate(archetype Archetype, storage Storage) bool
}

type rowIterator interface {
	Entities() iter.Seq2[int, table.Table]
	Next() bool
	Reset()
}

// Cache maps string keys to items at stable indices starting at 1.
type Cache[T any] interface {
	GetIndex(string) (int, bool)
	GetItem(int) *T
	GetItem32(uint32) *T
	Register(string, T) (int, error)
	Keys() []string
	All() iter.Seq2[string, *T]
	Len() int
	Clear()
}
