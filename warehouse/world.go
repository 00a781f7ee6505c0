package warehouse

import (
	"iter"
)

// Spawn creates a single entity holding components. An entity spawned with
// no components is parked on the Anchor component. While the storage is
// locked the returned handle is valid but has no row until unlock; values
// attached to it in the meantime are applied after it is created.
func Spawn(sto Storage, components ...Component) (Entity, error) {
	if len(components) == 0 {
		components = []Component{anchorComponent}
	}
	if s, ok := sto.(*storage); ok && s.Locked() {
		return s.reserve(components), nil
	}
	entities, err := sto.NewEntities(1, components...)
	if err != nil {
		return nil, err
	}
	return entities[0], nil
}

// Attach inserts comp with value on entity, or replaces the value when the
// entity already has comp. While the storage is locked the change is queued
// and applied on unlock.
func Attach[T any](entity Entity, comp AccessibleComponent[T], value T) error {
	if entity == nil || !entity.Valid() {
		return InvalidEntityError{}
	}
	if tbl := entity.Table(); tbl != nil && tbl.Contains(comp) {
		*comp.GetFromEntity(entity) = value
		return nil
	}
	return entity.EnqueueAddComponentWithValue(comp, value)
}

// Despawn destroys entities, deferring until unlock when needed.
func Despawn(entities ...Entity) error {
	for _, en := range entities {
		if en == nil || !en.Valid() {
			continue
		}
		if err := en.Storage().EnqueueDestroyEntities(en); err != nil {
			return err
		}
	}
	return nil
}

// Select returns the entities matching node. The sequence is lazy: matching
// archetypes are resolved when iteration starts, so ranging over it again
// observes the storage as it is then. The storage is locked while iterating;
// structural changes made by the loop body are applied once it ends.
func Select(sto Storage, node QueryNode) iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		s := sto.(*storage)
		matched := matchArchetypes(node, sto)
		if len(matched) == 0 {
			return
		}
		sto.Lock()
		defer sto.Unlock()

		for _, arch := range matched {
			tbl := arch.table
			for row, n := 0, tbl.Length(); row < n; row++ {
				en, ok := s.entityAt(tbl, row)
				if !ok {
					continue
				}
				if !yield(en) {
					return
				}
			}
		}
	}
}

// Count returns how many entities currently match node.
func Count(sto Storage, node QueryNode) int {
	total := 0
	for _, arch := range matchArchetypes(node, sto) {
		total += arch.table.Length()
	}
	return total
}
