package warehouse

import "github.com/TheBitDrifter/table"

type archetypeID uint32

// archetype is the table of every entity holding one exact component set.
type archetype struct {
	id    archetypeID
	table table.Table
}

func newArchetype(schema table.Schema, entryIndex table.EntryIndex, id archetypeID, components ...Component) (archetype, error) {
	columns := make([]table.ElementType, 0, len(components))
	for _, c := range components {
		columns = append(columns, c)
	}
	tbl, err := table.NewTableBuilder().
		WithSchema(schema).
		WithEntryIndex(entryIndex).
		WithElementTypes(columns...).
		WithEvents(Config.tableEvents).
		Build()
	if err != nil {
		return archetype{}, err
	}
	return archetype{id: id, table: tbl}, nil
}

func (a archetype) ID() uint32 {
	return uint32(a.id)
}

func (a archetype) Table() table.Table {
	return a.table
}
