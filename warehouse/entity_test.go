package warehouse

import (
	"errors"
	"testing"

	"github.com/TheBitDrifter/table"
)

type Position struct {
	X, Y float64
}

type Velocity struct {
	X, Y float64
}

type Health struct {
	Current, Max int
}

var (
	positionComp = FactoryNewComponent[Position]()
	velocityComp = FactoryNewComponent[Velocity]()
	healthComp   = FactoryNewComponent[Health]()
)

func newTestStorage() Storage {
	return Factory.NewStorage(table.Factory.NewSchema())
}

func TestNewEntities(t *testing.T) {
	tests := []struct {
		name    string
		comps   []Component
		n       int
		wantErr error
	}{
		{"no components", nil, 1, EmptyEntityError{}},
		{"one component", []Component{positionComp}, 10, nil},
		{"two components", []Component{positionComp, velocityComp}, 5, nil},
		{"large batch", []Component{positionComp, velocityComp, healthComp}, 1000, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sto := newTestStorage()
			created, err := sto.NewEntities(tt.n, tt.comps...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NewEntities() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewEntities() error = %v", err)
			}
			if len(created) != tt.n {
				t.Fatalf("created %d entities, want %d", len(created), tt.n)
			}
			for _, en := range created {
				found, err := sto.Entity(int(en.ID()))
				if err != nil || found != en {
					t.Fatalf("Entity(%d) = %v, %v; want the created entity", en.ID(), found, err)
				}
			}
			if got := len(created[0].Components()); got != len(tt.comps) {
				t.Errorf("entity has %d components, want %d", got, len(tt.comps))
			}
		})
	}
}

func TestEntityMovesBetweenArchetypes(t *testing.T) {
	type step struct {
		add    Component
		remove Component
	}
	tests := []struct {
		name           string
		initial        []Component
		steps          []step
		wantComponents int
		wantArchetypes int
	}{
		{
			name:           "add",
			initial:        []Component{positionComp},
			steps:          []step{{add: velocityComp}},
			wantComponents: 2,
			wantArchetypes: 2,
		},
		{
			name:           "remove",
			initial:        []Component{positionComp, velocityComp},
			steps:          []step{{remove: velocityComp}},
			wantComponents: 1,
			wantArchetypes: 2,
		},
		{
			name:           "round trip reuses archetypes",
			initial:        []Component{positionComp},
			steps:          []step{{add: velocityComp}, {remove: velocityComp}, {add: velocityComp}},
			wantComponents: 2,
			wantArchetypes: 2,
		},
		{
			name:           "removing the last component parks on the anchor",
			initial:        []Component{positionComp},
			steps:          []step{{remove: positionComp}},
			wantComponents: 1,
			wantArchetypes: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sto := newTestStorage()
			created, err := sto.NewEntities(1, tt.initial...)
			if err != nil {
				t.Fatalf("NewEntities() error = %v", err)
			}
			en := created[0]
			for _, s := range tt.steps {
				if s.add != nil {
					err = en.AddComponent(s.add)
				} else {
					err = en.RemoveComponent(s.remove)
				}
				if err != nil {
					t.Fatalf("step %+v: %v", s, err)
				}
			}
			if got := len(en.Components()); got != tt.wantComponents {
				t.Errorf("%s: %d components, want %d", en.ComponentsAsString(), got, tt.wantComponents)
			}
			if got := len(sto.Archetypes()); got != tt.wantArchetypes {
				t.Errorf("%d archetypes, want %d", got, tt.wantArchetypes)
			}
		})
	}
}

func TestValuesSurviveMoves(t *testing.T) {
	sto := newTestStorage()
	created, _ := sto.NewEntities(3, healthComp)
	en := created[1]

	if err := en.AddComponentWithValue(positionComp, Position{X: 1, Y: 2}); err != nil {
		t.Fatalf("AddComponentWithValue() error = %v", err)
	}
	*healthComp.GetFromEntity(en) = Health{Current: 7, Max: 10}
	if err := en.AddComponentWithValue(velocityComp, Velocity{X: 3}); err != nil {
		t.Fatalf("AddComponentWithValue() error = %v", err)
	}
	if err := en.RemoveComponent(velocityComp); err != nil {
		t.Fatalf("RemoveComponent() error = %v", err)
	}

	if got := *positionComp.GetFromEntity(en); got != (Position{X: 1, Y: 2}) {
		t.Errorf("position = %+v after moves", got)
	}
	if got := *healthComp.GetFromEntity(en); got != (Health{Current: 7, Max: 10}) {
		t.Errorf("health = %+v after moves", got)
	}
	if err := en.AddComponentWithValue(positionComp, Position{X: 9}); err != nil {
		t.Fatalf("replacing a value: %v", err)
	}
	if got := positionComp.GetFromEntity(en).X; got != 9 {
		t.Errorf("replaced position X = %v, want 9", got)
	}
	if err := en.AddComponentWithValue(positionComp, "not a position"); err == nil {
		t.Errorf("AddComponentWithValue accepted a value of the wrong type")
	}
}

func TestComponentErrors(t *testing.T) {
	sto := newTestStorage()
	created, _ := sto.NewEntities(1, positionComp)
	en := created[0]

	tests := []struct {
		name string
		do   func() error
		want any
	}{
		{"add existing", func() error { return en.AddComponent(positionComp) }, &ComponentExistsError{}},
		{"remove missing", func() error { return en.RemoveComponent(velocityComp) }, &ComponentNotFoundError{}},
		{"add while locked", func() error {
			sto.Lock()
			defer sto.Unlock()
			return en.AddComponent(velocityComp)
		}, &LockedStorageError{}},
		{"second parent", func() error {
			others, _ := sto.NewEntities(1, positionComp)
			if err := en.SetParent(others[0], nil); err != nil {
				return err
			}
			return en.SetParent(others[0], nil)
		}, &EntityRelationError{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.do(); !errors.As(err, tt.want) {
				t.Errorf("error = %v, want %T", err, tt.want)
			}
		})
	}
}

func TestEntityParentCallback(t *testing.T) {
	sto := newTestStorage()
	created, _ := sto.NewEntities(2, positionComp)
	parent, child := created[0], created[1]

	var destroyed []Entity
	if err := child.SetParent(parent, func(e Entity) { destroyed = append(destroyed, e) }); err != nil {
		t.Fatalf("SetParent() error = %v", err)
	}
	if child.Parent() != parent {
		t.Errorf("Parent() = %v, want %v", child.Parent(), parent)
	}
	if err := sto.DestroyEntities(parent, parent); err != nil {
		t.Fatalf("DestroyEntities() error = %v", err)
	}
	if len(destroyed) != 1 || destroyed[0] != parent {
		t.Errorf("destroy callback saw %v, want the parent once", destroyed)
	}
	if _, err := sto.Entity(int(child.ID())); err != nil {
		t.Errorf("child lookup failed after parent destroy: %v", err)
	}
}
