package warehouse

import (
	"fmt"
	"strings"

	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
	iter_util "github.com/TheBitDrifter/util/iter"
)

var _ Entity = &entity{}

// entity is a stable handle. The row behind it moves whenever a component
// is attached or detached, or another row of its table is deleted, so the
// entry is resolved from the storage's entry index on every access.
type entity struct {
	sto       *storage
	id        table.EntryID
	entryID   table.EntryID
	parent    Entity
	onDestroy EntityDestroyCallback
	// pending is set on handles spawned while the storage was locked; they
	// get a row when the queue is applied.
	pending   bool
	destroyed bool
}

func (e *entity) Valid() bool {
	return e != nil && !e.destroyed && e.sto != nil
}

// ID is assigned once per storage and never reused.
func (e *entity) ID() table.EntryID {
	return e.id
}

func (e *entity) entry() (table.Entry, bool) {
	if !e.Valid() || e.pending {
		return nil, false
	}
	en, err := e.sto.entryIndex.Entry(int(e.entryID) - 1)
	return en, err == nil
}

func (e *entity) Recycled() int {
	if en, ok := e.entry(); ok {
		return en.Recycled()
	}
	return 0
}

// Index is the entity's current row, or -1 without one.
func (e *entity) Index() int {
	if en, ok := e.entry(); ok {
		return en.Index()
	}
	return -1
}

// Table is the archetype table currently holding the entity, or nil for a
// destroyed or not yet created entity.
func (e *entity) Table() table.Table {
	if en, ok := e.entry(); ok {
		return en.Table()
	}
	return nil
}

func (e *entity) Storage() Storage {
	return e.sto
}

func (e *entity) Components() []Component {
	tbl := e.Table()
	if tbl == nil {
		return nil
	}
	types := iter_util.Collect(tbl.ElementTypes())
	comps := make([]Component, len(types))
	for i, et := range types {
		comps[i] = et
	}
	return comps
}

func (e *entity) ComponentsAsString() string {
	var b strings.Builder
	fmt.Fprintf(&b, "entity %d: [", e.ID())
	for i, c := range e.Components() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(componentName(c))
	}
	b.WriteByte(']')
	return b.String()
}

func (e *entity) Parent() Entity {
	return e.parent
}

// SetParent links e under parent. callback runs when the parent is
// destroyed, typically to despawn e with it.
func (e *entity) SetParent(parent Entity, callback EntityDestroyCallback) error {
	if e.parent != nil {
		return EntityRelationError{e, e.parent}
	}
	e.parent = parent
	return parent.SetDestroyCallback(callback)
}

func (e *entity) SetDestroyCallback(callback EntityDestroyCallback) error {
	e.onDestroy = callback
	return nil
}

func (e *entity) AddComponent(c Component) error {
	if err := e.checkMutable(); err != nil {
		return err
	}
	if e.Table().Contains(c) {
		return ComponentExistsError{Component: c}
	}
	dest := e.mask()
	dest.Mark(e.sto.RowIndexFor(c))
	return e.moveTo(dest, append(e.Components(), c))
}

// AddComponentWithValue adds c and writes value into the new row. When the
// entity already has c the value replaces the current one.
func (e *entity) AddComponentWithValue(c Component, value any) error {
	assigner, ok := c.(valueAssigner)
	if !ok {
		return fmt.Errorf("component %T does not accept values", c)
	}
	tbl := e.Table()
	if tbl == nil {
		return InvalidEntityError{ID: int(e.ID())}
	}
	if !tbl.Contains(c) {
		if err := e.AddComponent(c); err != nil {
			return err
		}
	}
	return assigner.assign(e, value)
}

// RemoveComponent detaches c. Removing the last component parks the
// entity on the anchor so it keeps a row.
func (e *entity) RemoveComponent(c Component) error {
	if err := e.checkMutable(); err != nil {
		return err
	}
	if !e.Table().Contains(c) {
		return ComponentNotFoundError{Component: c}
	}
	row := e.sto.RowIndexFor(c)
	dest := e.mask()
	dest.Unmark(row)
	if dest == (mask.Mask{}) {
		if err := e.AddComponent(anchorComponent); err != nil {
			return err
		}
		return e.RemoveComponent(c)
	}
	kept := make([]Component, 0, len(e.Components()))
	for _, comp := range e.Components() {
		if e.sto.RowIndexFor(comp) != row {
			kept = append(kept, comp)
		}
	}
	return e.moveTo(dest, kept)
}

func (e *entity) EnqueueAddComponent(c Component) error {
	if !e.sto.Locked() {
		return e.AddComponent(c)
	}
	e.sto.opQueue.queueChange(e.sto, opAttach, e, c, nil)
	return nil
}

func (e *entity) EnqueueAddComponentWithValue(c Component, value any) error {
	if !e.sto.Locked() {
		return e.AddComponentWithValue(c, value)
	}
	e.sto.opQueue.queueChange(e.sto, opAttachValue, e, c, value)
	return nil
}

func (e *entity) EnqueueRemoveComponent(c Component) error {
	if !e.sto.Locked() {
		return e.RemoveComponent(c)
	}
	e.sto.opQueue.queueChange(e.sto, opDetach, e, c, nil)
	return nil
}

func (e *entity) checkMutable() error {
	if !e.Valid() {
		return InvalidEntityError{ID: int(e.ID())}
	}
	if e.sto.Locked() {
		return LockedStorageError{}
	}
	if e.Table() == nil {
		return InvalidEntityError{ID: int(e.ID())}
	}
	return nil
}

func (e *entity) mask() mask.Mask {
	return e.Table().(mask.Maskable).Mask()
}

// moveTo transfers the entity's row into the archetype for dest, creating
// it from comps on first use. The transfer recycles the entry, so the
// handle is rebound to the row appended to dest.
func (e *entity) moveTo(dest mask.Mask, comps []Component) error {
	arch, ok := e.sto.archetypeFor(dest)
	if !ok {
		var err error
		if arch, err = e.sto.createArchetype(dest, comps...); err != nil {
			return fmt.Errorf("creating archetype: %w", err)
		}
	}
	if err := e.Table().TransferEntries(arch.table, e.Index()); err != nil {
		return fmt.Errorf("moving entity %d: %w", e.ID(), err)
	}
	moved, err := arch.table.Entry(arch.table.Length() - 1)
	if err != nil {
		return fmt.Errorf("locating moved entity %d: %w", e.ID(), err)
	}
	e.sto.unbind(e)
	e.sto.bind(e, moved)
	return nil
}
