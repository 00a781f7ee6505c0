package woody

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"time"
)

// GameState describes the tick being updated.
type GameState struct {
	DeltaTime time.Duration
	Frame     uint64
}

type SystemPriority int

// System updates the world once per tick. Lower priorities run first.
type System interface {
	Priority() SystemPriority
	Update(app *App, state GameState) error
}

type updateSystem struct {
	priority SystemPriority
	update   func(*App, GameState) error
}

// UpdateSystem wraps a function as a System.
func UpdateSystem(update func(*App, GameState) error, p SystemPriority) System {
	return &updateSystem{priority: p, update: update}
}

func (s *updateSystem) Priority() SystemPriority { return s.priority }

func (s *updateSystem) Update(app *App, state GameState) error {
	return s.update(app, state)
}

// Systems holds the hooks an App runs.
type Systems struct {
	create   []func(*App) error
	update   []System
	ordered  bool
	handlers map[reflect.Type][]any
}

// CreateEvent is fired once the create hooks have run.
type CreateEvent struct{}

// UpdateEvent is fired after the update systems of every tick, with the
// storage still locked.
type UpdateEvent struct {
	State GameState
}

// Subscribe registers handler for events of type E. Handlers run in
// subscription order.
func Subscribe[E any](s *Systems, handler func(*App, E) error) {
	if s.handlers == nil {
		s.handlers = make(map[reflect.Type][]any)
	}
	key := reflect.TypeFor[E]()
	s.handlers[key] = append(s.handlers[key], handler)
}

// Fire delivers event to the handlers subscribed to its type on
// app.Systems, stopping at the first error. Events nobody subscribed to are
// dropped.
func Fire[E any](app *App, event E) error {
	for i, h := range app.Systems.handlers[reflect.TypeFor[E]()] {
		if err := h.(func(*App, E) error)(app, event); err != nil {
			return fmt.Errorf("%T handler %d: %w", event, i, err)
		}
	}
	return nil
}

// OnCreate registers f to run once before the first tick.
func (s *Systems) OnCreate(f func(*App) error) {
	s.create = append(s.create, f)
}

// OnUpdate registers sys to run every tick. Systems of equal priority run
// in registration order.
func (s *Systems) OnUpdate(sys System) {
	s.update = append(s.update, sys)
	s.ordered = false
}

func (s *Systems) Len() int {
	return len(s.update)
}

func (s *Systems) runCreate(app *App) error {
	for i, f := range s.create {
		if err := f(app); err != nil {
			return fmt.Errorf("create hook %d: %w", i, err)
		}
	}
	return Fire(app, CreateEvent{})
}

func (s *Systems) runUpdate(app *App, state GameState) error {
	if !s.ordered {
		slices.SortStableFunc(s.update, func(a, b System) int {
			return cmp.Compare(a.Priority(), b.Priority())
		})
		s.ordered = true
	}
	for _, sys := range s.update {
		if err := sys.Update(app, state); err != nil {
			return fmt.Errorf("system %T (priority %d): %w", sys, sys.Priority(), err)
		}
	}
	return Fire(app, UpdateEvent{State: state})
}
