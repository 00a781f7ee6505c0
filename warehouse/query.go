package warehouse

import (
	"fmt"
	"strings"

	"github.com/TheBitDrifter/mask"
)

type Operation int

const (
	OpAnd Operation = iota
	OpOr
	OpNot
)

func (op Operation) String() string {
	switch op {
	case OpAnd:
		return "And"
	case OpOr:
		return "Or"
	case OpNot:
		return "Not"
	}
	return fmt.Sprintf("Operation(%d)", int(op))
}

// componentSet resolves its components to a mask once per storage. Row
// indices are stable after registration, so the mask only changes when
// the node is evaluated against a different storage.
type componentSet struct {
	components []Component
	resolvedIn Storage
	resolved   mask.Mask
}

func (s *componentSet) mask(sto Storage) mask.Mask {
	if s.resolvedIn != sto {
		var m mask.Mask
		for _, c := range s.components {
			m.Mark(sto.RowIndexFor(c))
		}
		s.resolved, s.resolvedIn = m, sto
	}
	return s.resolved
}

func (s *componentSet) names() []string {
	names := make([]string, len(s.components))
	for i, c := range s.components {
		names[i] = componentName(c)
	}
	return names
}

type compositeNode struct {
	op       Operation
	set      componentSet
	children []QueryNode
}

// Evaluate reports whether archetype satisfies the node:
//
//	And: holds every component and satisfies every child
//	Or:  holds any component or satisfies any child
//	Not: holds none of the components and satisfies no child
func (n *compositeNode) Evaluate(archetype Archetype, sto Storage) bool {
	own := n.set.mask(sto)
	arch := archetype.Table().(mask.Maskable).Mask()
	switch n.op {
	case OpAnd:
		if !arch.ContainsAll(own) {
			return false
		}
		for _, child := range n.children {
			if !child.Evaluate(archetype, sto) {
				return false
			}
		}
		return true
	case OpOr:
		if arch.ContainsAny(own) {
			return true
		}
		for _, child := range n.children {
			if child.Evaluate(archetype, sto) {
				return true
			}
		}
		return false
	case OpNot:
		for _, child := range n.children {
			if child.Evaluate(archetype, sto) {
				return false
			}
		}
		return arch.ContainsNone(own)
	}
	return false
}

func (n *compositeNode) String() string {
	parts := n.set.names()
	for _, child := range n.children {
		parts = append(parts, fmt.Sprint(child))
	}
	return fmt.Sprintf("%s(%s)", n.op, strings.Join(parts, ", "))
}

type leafNode struct {
	set componentSet
}

// Leaf returns a node matching archetypes that hold all of components.
func Leaf(components ...Component) QueryNode {
	return &leafNode{set: componentSet{components: components}}
}

func (n *leafNode) Evaluate(archetype Archetype, sto Storage) bool {
	return archetype.Table().(mask.Maskable).Mask().ContainsAll(n.set.mask(sto))
}

func (n *leafNode) String() string {
	return fmt.Sprintf("Leaf(%s)", strings.Join(n.set.names(), ", "))
}

type query struct {
	root QueryNode
}

func (q *query) And(items ...any) QueryNode {
	return q.node(OpAnd, items)
}

func (q *query) Or(items ...any) QueryNode {
	return q.node(OpOr, items)
}

func (q *query) Not(items ...any) QueryNode {
	return q.node(OpNot, items)
}

// node accepts Components, []Component and QueryNodes; anything else is
// ignored.
func (q *query) node(op Operation, items []any) QueryNode {
	n := &compositeNode{op: op}
	for _, item := range items {
		switch v := item.(type) {
		case Component:
			n.set.components = append(n.set.components, v)
		case []Component:
			n.set.components = append(n.set.components, v...)
		case QueryNode:
			n.children = append(n.children, v)
		}
	}
	if q.root == nil {
		q.root = n
	}
	return n
}

func (q *query) Evaluate(archetype Archetype, sto Storage) bool {
	if q.root == nil {
		return false
	}
	return q.root.Evaluate(archetype, sto)
}

func (q *query) String() string {
	if q.root == nil {
		return "Query()"
	}
	return fmt.Sprint(q.root)
}
