package warehouse

import (
	"fmt"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
)

var _ Storage = &storage{}

type storage struct {
	schema     table.Schema
	entryIndex table.EntryIndex
	archetypes archetypes
	// entities is indexed by handle id; byEntry maps the shared index's
	// entry ids, which are recycled, to the handle currently holding them.
	entities   []*entity
	byEntry    map[table.EntryID]*entity
	resources  *Resources
	opQueue    opQueue
	lockDepth  int
	lockBits   mask.Mask
}

// archetypes are numbered from 1 in creation order; byMask resolves a
// component set to its archetype id.
type archetypes struct {
	list   []archetype
	byMask map[mask.Mask]archetypeID
}

func newStorage(schema table.Schema) *storage {
	return &storage{
		schema:     schema,
		entryIndex: table.Factory.NewEntryIndex(),
		archetypes: archetypes{byMask: make(map[mask.Mask]archetypeID)},
		byEntry:    make(map[table.EntryID]*entity),
		resources:  newResources(),
		opQueue:    newOpQueue(),
	}
}

func (sto *storage) Entity(id int) (Entity, error) {
	if id < 1 || id > len(sto.entities) {
		return nil, InvalidEntityError{ID: id}
	}
	if en := sto.entities[id-1]; en.Valid() {
		return en, nil
	}
	return nil, InvalidEntityError{ID: id}
}

func (sto *storage) NewEntities(n int, components ...Component) ([]Entity, error) {
	if sto.Locked() {
		return nil, LockedStorageError{}
	}
	if len(components) == 0 {
		return nil, EmptyEntityError{}
	}
	return sto.createRows(n, components, nil)
}

// createRows adds n rows for the component set and binds them to handles,
// reusing the reserved ones when given.
func (sto *storage) createRows(n int, components []Component, reserved []*entity) ([]Entity, error) {
	arch, err := sto.NewOrExistingArchetype(components...)
	if err != nil {
		return nil, err
	}
	entries, err := arch.Table().NewEntries(n)
	if err != nil {
		return nil, err
	}
	created := make([]Entity, n)
	for i, entry := range entries {
		var en *entity
		if i < len(reserved) {
			en = reserved[i]
			en.pending = false
		} else {
			en = sto.newHandle()
		}
		sto.bind(en, entry)
		created[i] = en
	}
	return created, nil
}

// NewOrExistingArchetype returns the archetype holding exactly the given
// component set, creating it on first use. Component order is irrelevant.
func (sto *storage) NewOrExistingArchetype(components ...Component) (Archetype, error) {
	var m mask.Mask
	for _, c := range components {
		m.Mark(sto.RowIndexFor(c))
	}
	if arch, ok := sto.archetypeFor(m); ok {
		return arch, nil
	}
	return sto.createArchetype(m, components...)
}

func (sto *storage) archetypeFor(m mask.Mask) (archetype, bool) {
	id, ok := sto.archetypes.byMask[m]
	if !ok {
		return archetype{}, false
	}
	return sto.archetypes.list[id-1], true
}

func (sto *storage) createArchetype(m mask.Mask, components ...Component) (archetype, error) {
	id := archetypeID(len(sto.archetypes.list) + 1)
	arch, err := newArchetype(sto.schema, sto.entryIndex, id, components...)
	if err != nil {
		return archetype{}, err
	}
	sto.archetypes.list = append(sto.archetypes.list, arch)
	sto.archetypes.byMask[m] = id
	return arch, nil
}

func (sto *storage) newHandle() *entity {
	en := &entity{sto: sto, id: table.EntryID(len(sto.entities) + 1)}
	sto.entities = append(sto.entities, en)
	return en
}

// reserve hands out a handle for an entity created when the queue is
// applied.
func (sto *storage) reserve(components []Component) *entity {
	en := sto.newHandle()
	en.pending = true
	sto.opQueue.queueSpawn(en, components)
	return en
}

func (sto *storage) bind(en *entity, entry table.Entry) {
	en.entryID = entry.ID()
	sto.byEntry[entry.ID()] = en
}

func (sto *storage) unbind(en *entity) {
	if sto.byEntry[en.entryID] == en {
		delete(sto.byEntry, en.entryID)
	}
	en.entryID = 0
}

// entityAt resolves the handle holding a table row.
func (sto *storage) entityAt(tbl table.Table, row int) (*entity, bool) {
	entry, err := tbl.Entry(row)
	if err != nil {
		return nil, false
	}
	en, ok := sto.byEntry[entry.ID()]
	return en, ok
}

func (sto *storage) RowIndexFor(c Component) uint32 {
	sto.schema.Register(c)
	return sto.schema.RowIndexFor(c)
}

func (sto *storage) Archetypes() []Archetype {
	out := make([]Archetype, len(sto.archetypes.list))
	for i, arch := range sto.archetypes.list {
		out[i] = arch
	}
	return out
}

func (sto *storage) Resources() *Resources {
	return sto.resources
}

func (sto *storage) Locked() bool {
	return sto.lockDepth > 0 || sto.lockBits != (mask.Mask{})
}

// Lock nests: every Lock needs a matching Unlock before queued
// operations are applied.
func (sto *storage) Lock() {
	sto.lockDepth++
}

func (sto *storage) Unlock() {
	if sto.lockDepth > 0 {
		sto.lockDepth--
	}
	sto.flush()
}

// AddLock holds the storage under a named bit, independent of Lock depth.
func (sto *storage) AddLock(bit uint32) {
	sto.lockBits.Mark(bit)
}

func (sto *storage) RemoveLock(bit uint32) {
	sto.lockBits.Unmark(bit)
	sto.flush()
}

// flush applies queued operations once no lock remains. A failure here
// means the queue recorded an operation the storage cannot honour, which
// leaves the world inconsistent.
func (sto *storage) flush() {
	if sto.Locked() {
		return
	}
	n := sto.opQueue.len()
	if err := sto.applyQueued(); err != nil {
		Config.logger.Error("flushing queued operations",
			"count", n, bark.KeyError, bark.AddTrace(err))
		panic(err)
	}
}

func (sto *storage) EnqueueNewEntities(n int, components ...Component) error {
	if len(components) == 0 {
		return EmptyEntityError{}
	}
	if sto.Locked() {
		sto.opQueue.queueCreate(n, components)
		return nil
	}
	if _, err := sto.NewEntities(n, components...); err != nil {
		return fmt.Errorf("creating %d entities: %w", n, err)
	}
	return nil
}

// DestroyEntities removes entities from their tables, skipping duplicates
// and handles that are no longer valid. Destroy callbacks run after every
// row is gone.
func (sto *storage) DestroyEntities(entities ...Entity) error {
	if sto.Locked() {
		return LockedStorageError{}
	}
	var doomed []*entity
	seen := make(map[*entity]bool, len(entities))
	rows := make(map[table.Table][]int)
	for _, e := range entities {
		en, ok := e.(*entity)
		if !ok || !en.Valid() || en.sto != sto || seen[en] {
			continue
		}
		seen[en] = true
		doomed = append(doomed, en)
		if tbl := en.Table(); tbl != nil {
			rows[tbl] = append(rows[tbl], en.Index())
		}
	}
	for tbl, idx := range rows {
		if _, err := tbl.DeleteEntries(idx...); err != nil {
			return fmt.Errorf("deleting entries: %w", err)
		}
	}
	for _, en := range doomed {
		sto.unbind(en)
		en.destroyed = true
		en.pending = false
		sto.entities[en.id-1] = nil
	}
	for _, en := range doomed {
		if en.onDestroy != nil {
			en.onDestroy(en)
		}
	}
	return nil
}

func (sto *storage) EnqueueDestroyEntities(entities ...Entity) error {
	if !sto.Locked() {
		return sto.DestroyEntities(entities...)
	}
	sto.opQueue.queueDestroy(entities)
	return nil
}
