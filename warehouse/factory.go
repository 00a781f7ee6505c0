package warehouse

import "github.com/TheBitDrifter/table"

type factory struct{}

// Factory creates storages, queries and cursors.
var Factory factory

// NewStorage creates an empty storage. Components are registered with
// schema the first time they are used.
func (factory) NewStorage(schema table.Schema) Storage {
	return newStorage(schema)
}

func (factory) NewQuery() Query {
	return &query{}
}

func (factory) NewCursor(node QueryNode, sto Storage) *Cursor {
	return &Cursor{query: node, storage: sto}
}

// FactoryNewComponent declares the component for Go type T. Declare each
// type once, usually as a package-level variable.
func FactoryNewComponent[T any]() AccessibleComponent[T] {
	elementType := table.FactoryNewElementType[T]()
	return AccessibleComponent[T]{
		Component: elementType,
		Accessor:  table.FactoryNewAccessor[T](elementType),
	}
}

// FactoryNewCache creates a cache holding at most capacity items.
func FactoryNewCache[T any](capacity int) Cache[T] {
	return newSimpleCache[T](capacity)
}
