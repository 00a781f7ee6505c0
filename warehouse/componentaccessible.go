package warehouse

import (
	"fmt"

	"github.com/TheBitDrifter/table"
)

// AccessibleComponent extends a base Component with table-based accessibility
// It provides methods to retrieve components using different access patterns
type AccessibleComponent[T any] struct {
	Component
	table.Accessor[T] // concrete.
}

// GetFromCursor retrieves a component value for the entity at the cursor position
func (c AccessibleComponent[T]) GetFromCursor(cursor *Cursor) *T {
	return c.Get(cursor.row())
}

// GetFromCursorSafe safely retrieves a component value, checking if the component exists
// Returns a boolean indicating success and the component pointer if found
func (c AccessibleComponent[T]) GetFromCursorSafe(cursor *Cursor) (bool, *T) {
	if !c.CheckCursor(cursor) {
		return false, nil
	}
	return true, c.GetFromCursor(cursor)
}

// CheckCursor determines if the component exists in the archetype at the cursor position
func (c AccessibleComponent[T]) CheckCursor(cursor *Cursor) bool {
	_, tbl := cursor.row()
	return tbl != nil && c.Accessor.Check(tbl)
}

// GetFromEntity retrieves a component value for the specified entity
func (c AccessibleComponent[T]) GetFromEntity(entity Entity) *T {
	return c.Get(entity.Index(), entity.Table())
}

// GetFromEntitySafe is GetFromEntity for entities that may lack the component.
func (c AccessibleComponent[T]) GetFromEntitySafe(entity Entity) (bool, *T) {
	if entity == nil || !entity.Valid() || !c.Accessor.Check(entity.Table()) {
		return false, nil
	}
	return true, c.GetFromEntity(entity)
}

func (c AccessibleComponent[T]) assign(entity Entity, value any) error {
	v, ok := value.(T)
	if !ok {
		return fmt.Errorf("value of type %T cannot be assigned to component %T", value, c.Component)
	}
	*c.GetFromEntity(entity) = v
	return nil
}
