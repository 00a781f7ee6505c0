/*
Package warehouse is the entity store behind woody: an archetype-based
Entity-Component-System where entities sharing a component set live
together in one table.

Core Concepts:

  - Entity: A handle to one row in an archetype table. Its ID is unique within its Storage.
  - Component: A typed column. Create one per Go type with FactoryNewComponent.
  - Archetype: The table holding every entity with exactly one component set.
  - Query: A tree of And/Or/Not nodes evaluated against archetype masks.
  - Resources: Storage-wide singletons keyed by type.

Structural changes (spawn, attach, detach, destroy) made while a storage is
locked are queued and applied, in order, when the last lock is released.
Cursors and Select lock the storage while iterating, so systems can spawn
and despawn from inside a loop.

Usage:

	storage := warehouse.Factory.NewStorage(table.Factory.NewSchema())

	transform := warehouse.FactoryNewComponent[Transform]()
	mesh := warehouse.FactoryNewComponent[Mesh]()

	en, _ := warehouse.Spawn(storage, transform)
	warehouse.Attach(en, mesh, cube)

	for en := range warehouse.Select(storage, warehouse.Leaf(transform, mesh)) {
		draw(transform.GetFromEntity(en), mesh.GetFromEntity(en))
	}

Hot loops can use a Cursor instead, which reads components by row without
materializing entity handles:

	cursor := warehouse.Factory.NewCursor(warehouse.Leaf(transform, mesh), storage)
	for cursor.Next() {
		draw(transform.GetFromCursor(cursor), mesh.GetFromCursor(cursor))
	}
*/
package warehouse
