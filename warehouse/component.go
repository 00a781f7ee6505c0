package warehouse

import (
	"fmt"

	"github.com/TheBitDrifter/table"
)

// Component represents a data attribute/state that can be attached to entities
// Components can be used to create queries for entities
type Component interface {
	table.ElementType
}

// valueAssigner is implemented by components that know how to write an
// untyped value into an entity's row.
type valueAssigner interface {
	assign(entity Entity, value any) error
}

// anchor is attached to entities spawned without any components so they
// still own a row in some archetype.
type anchor struct{}

var anchorComponent = FactoryNewComponent[anchor]()

// Anchor returns the placeholder component used for component-less entities.
func Anchor() Component {
	return anchorComponent
}

func componentName(c Component) string {
	return fmt.Sprintf("%T", c)
}
