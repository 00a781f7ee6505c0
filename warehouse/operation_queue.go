package warehouse

import (
	"errors"
	"fmt"
)

type operationType int

const (
	opSkipped operationType = iota - 1
	opCreate
	opDestroy
	opAttach
	opAttachValue
	opDetach
)

func (t operationType) String() string {
	switch t {
	case opSkipped:
		return "skipped"
	case opCreate:
		return "create"
	case opDestroy:
		return "destroy"
	case opAttach:
		return "attach"
	case opAttachValue:
		return "attach value"
	case opDetach:
		return "detach"
	}
	return fmt.Sprintf("operation(%d)", int(t))
}

type operation struct {
	typ      operationType
	amount   int
	comps    []Component
	value    any
	entities []Entity
}

type changeKey struct {
	entity Entity
	row    uint32
}

// opQueue holds structural changes made while the storage is locked. They
// are applied in three phases: creations, component changes, destructions.
type opQueue struct {
	creates  []operation
	changes  []operation
	destroys []operation
	doomed   map[Entity]struct{}
	changeAt map[changeKey]int
}

func newOpQueue() opQueue {
	return opQueue{
		doomed:   make(map[Entity]struct{}),
		changeAt: make(map[changeKey]int),
	}
}

func (q *opQueue) empty() bool {
	return len(q.creates)+len(q.changes)+len(q.destroys) == 0
}

func (q *opQueue) len() int {
	return len(q.creates) + len(q.changes) + len(q.destroys)
}

func (q *opQueue) queueCreate(amount int, comps []Component) {
	q.creates = append(q.creates, operation{typ: opCreate, amount: amount, comps: comps})
}

// queueSpawn records the creation of a single reserved entity.
func (q *opQueue) queueSpawn(en *entity, comps []Component) {
	q.creates = append(q.creates, operation{typ: opCreate, amount: 1, comps: comps, entities: []Entity{en}})
}

// queueDestroy drops entities already queued and cancels their pending
// component changes.
func (q *opQueue) queueDestroy(entities []Entity) {
	var fresh []Entity
	for _, en := range entities {
		if en == nil {
			continue
		}
		if _, queued := q.doomed[en]; queued {
			continue
		}
		q.doomed[en] = struct{}{}
		fresh = append(fresh, en)
		for key, at := range q.changeAt {
			if key.entity == en {
				q.changes[at].typ = opSkipped
				delete(q.changeAt, key)
			}
		}
	}
	if len(fresh) > 0 {
		q.destroys = append(q.destroys, operation{typ: opDestroy, entities: fresh})
	}
}

// queueChange records a component change. A later change to the same
// component of the same entity replaces the earlier one; changes to an
// entity already queued for destruction are dropped.
func (q *opQueue) queueChange(sto Storage, typ operationType, en Entity, comp Component, value any) {
	if _, queued := q.doomed[en]; queued {
		return
	}
	key := changeKey{entity: en, row: sto.RowIndexFor(comp)}
	if at, ok := q.changeAt[key]; ok {
		q.changes[at] = operation{typ: typ, entities: []Entity{en}, comps: []Component{comp}, value: value}
		return
	}
	q.changeAt[key] = len(q.changes)
	q.changes = append(q.changes, operation{typ: typ, entities: []Entity{en}, comps: []Component{comp}, value: value})
}

// applyQueued runs the queued operations against an unlocked storage.
// The queue is swapped out first so destroy callbacks may queue more work.
func (sto *storage) applyQueued() error {
	if sto.opQueue.empty() {
		return nil
	}
	pending := sto.opQueue
	sto.opQueue = newOpQueue()

	for _, op := range pending.creates {
		var reserved []*entity
		for _, en := range op.entities {
			reserved = append(reserved, en.(*entity))
		}
		if _, err := sto.createRows(op.amount, op.comps, reserved); err != nil {
			return fmt.Errorf("applying queued %s: %w", op.typ, err)
		}
	}
	for _, op := range pending.changes {
		if op.typ == opSkipped || !op.entities[0].Valid() {
			continue
		}
		if err := applyChange(op); err != nil {
			return fmt.Errorf("applying queued %s: %w", op.typ, err)
		}
	}
	for _, op := range pending.destroys {
		if err := sto.DestroyEntities(op.entities...); err != nil {
			return fmt.Errorf("applying queued %s: %w", op.typ, err)
		}
	}
	return nil
}

func applyChange(op operation) error {
	en, comp := op.entities[0], op.comps[0]
	switch op.typ {
	case opAttach:
		if err := en.AddComponent(comp); err != nil && !errors.As(err, &ComponentExistsError{}) {
			return err
		}
	case opAttachValue:
		return en.AddComponentWithValue(comp, op.value)
	case opDetach:
		if err := en.RemoveComponent(comp); err != nil && !errors.As(err, &ComponentNotFoundError{}) {
			return err
		}
	}
	return nil
}
