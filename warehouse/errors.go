package warehouse

import "fmt"

// LockedStorageError rejects a direct structural change while a cursor,
// Select or an explicit lock holds the storage. Use the Enqueue variants.
type LockedStorageError struct{}

func (LockedStorageError) Error() string {
	return "storage is currently locked"
}

type EntityRelationError struct {
	child, parent Entity
}

func (e EntityRelationError) Error() string {
	return fmt.Sprintf("child (%v) already has parent %v", e.child.ID(), e.parent.ID())
}

type ComponentExistsError struct {
	Component Component
}

func (e ComponentExistsError) Error() string {
	return fmt.Sprintf("component already exists on entity: %s", componentName(e.Component))
}

type ComponentNotFoundError struct {
	Component Component
}

func (e ComponentNotFoundError) Error() string {
	return fmt.Sprintf("component does not exist on entity: %s", componentName(e.Component))
}

// InvalidEntityError reports a handle whose entity was destroyed or never
// existed.
type InvalidEntityError struct {
	ID int
}

func (e InvalidEntityError) Error() string {
	return fmt.Sprintf("entity %d is not alive", e.ID)
}

type EmptyEntityError struct{}

func (EmptyEntityError) Error() string {
	return "entities need at least one component"
}

type CacheCapacityError struct {
	Capacity int
}

func (e CacheCapacityError) Error() string {
	return fmt.Sprintf("cache at maximum capacity (%d)", e.Capacity)
}
