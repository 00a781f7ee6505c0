package warehouse_test

import (
	"fmt"

	"github.com/TheBitDrifter/table"
	"github.com/TheBitDrifter/woody/warehouse"
)

type Position struct {
	X, Y float64
}

type Velocity struct {
	X, Y float64
}

type Label struct {
	Text string
}

// Example walks a cursor over every moving entity and integrates its
// velocity.
func Example() {
	storage := warehouse.Factory.NewStorage(table.Factory.NewSchema())
	position := warehouse.FactoryNewComponent[Position]()
	velocity := warehouse.FactoryNewComponent[Velocity]()
	label := warehouse.FactoryNewComponent[Label]()

	storage.NewEntities(5, position)
	storage.NewEntities(3, position, velocity)

	ship, _ := warehouse.Spawn(storage, position, velocity, label)
	warehouse.Attach(ship, label, Label{Text: "ship"})
	warehouse.Attach(ship, position, Position{X: 10, Y: 20})
	warehouse.Attach(ship, velocity, Velocity{X: 1, Y: 2})

	moving := warehouse.Factory.NewQuery().And(position, velocity)
	cursor := warehouse.Factory.NewCursor(moving, storage)
	fmt.Println("moving entities:", cursor.TotalMatched())

	for cursor.Next() {
		pos, vel := position.GetFromCursor(cursor), velocity.GetFromCursor(cursor)
		pos.X += vel.X
		pos.Y += vel.Y
		if ok, l := label.GetFromCursorSafe(cursor); ok {
			fmt.Printf("%s at (%.0f, %.0f)\n", l.Text, pos.X, pos.Y)
		}
	}

	// Output:
	// moving entities: 4
	// ship at (11, 22)
}

// Example_queries combines And, Or and Not nodes.
func Example_queries() {
	storage := warehouse.Factory.NewStorage(table.Factory.NewSchema())
	position := warehouse.FactoryNewComponent[Position]()
	velocity := warehouse.FactoryNewComponent[Velocity]()
	label := warehouse.FactoryNewComponent[Label]()

	storage.NewEntities(3, position)
	storage.NewEntities(3, position, velocity)
	storage.NewEntities(3, position, label)
	storage.NewEntities(3, position, velocity, label)

	query := warehouse.Factory.NewQuery()
	for _, c := range []struct {
		name string
		node warehouse.QueryNode
	}{
		{"position and velocity", query.And(position, velocity)},
		{"velocity or label", query.Or(velocity, label)},
		{"no velocity", query.Not(velocity)},
		{"labelled, not moving", query.And(label, query.Not(velocity))},
	} {
		fmt.Printf("%s: %d\n", c.name, warehouse.Count(storage, c.node))
	}

	// Output:
	// position and velocity: 6
	// velocity or label: 9
	// no velocity: 6
	// labelled, not moving: 3
}

// Example_systems shows structural changes made while iterating.
func Example_systems() {
	storage := warehouse.Factory.NewStorage(table.Factory.NewSchema())
	position := warehouse.FactoryNewComponent[Position]()
	velocity := warehouse.FactoryNewComponent[Velocity]()

	for i := 0; i < 4; i++ {
		en, _ := warehouse.Spawn(storage, position)
		warehouse.Attach(en, position, Position{X: float64(i)})
	}

	// Attach is queued while Select holds the storage and applied when the
	// loop ends.
	for en := range warehouse.Select(storage, warehouse.Leaf(position)) {
		if position.GetFromEntity(en).X > 0 {
			warehouse.Attach(en, velocity, Velocity{X: 1})
		}
	}

	fmt.Println("moving:", warehouse.Count(storage, warehouse.Leaf(position, velocity)))

	// Output:
	// moving: 3
}

// Example_resources stores a storage-wide singleton.
func Example_resources() {
	type Clock struct{ Frame int }

	storage := warehouse.Factory.NewStorage(table.Factory.NewSchema())
	warehouse.SetResource(storage.Resources(), Clock{})

	for range 3 {
		clock, _ := warehouse.GetResource[Clock](storage.Resources())
		clock.Frame++
	}
	clock, _ := warehouse.GetResource[Clock](storage.Resources())
	fmt.Println("frame:", clock.Frame)

	// Output:
	// frame: 3
}
