package shader

// Variable is a stage input or output.
type Variable struct {
	Name     string
	Type     string
	Location int
	ArrayLen int
	Line     int
}

type Member struct {
	Name     string
	Type     string
	Offset   int
	Size     int
	ArrayLen int
}

// Block is a uniform or push constant block with resolved member offsets.
type Block struct {
	Name         string
	Instance     string
	Binding      int
	Set          int
	PushConstant bool
	Members      []Member
	Size         int
	Line         int
}

// Range returns the byte range the block's members occupy.
func (b *Block) Range() (offset, size int) {
	if len(b.Members) == 0 {
		return 0, 0
	}
	offset = b.Members[0].Offset
	end := 0
	for _, m := range b.Members {
		offset = min(offset, m.Offset)
		end = max(end, m.Offset+m.Size)
	}
	return offset, end - offset
}

// sameLayout reports whether two declarations of a block agree member by
// member.
func (b *Block) sameLayout(o *Block) bool {
	if len(b.Members) != len(o.Members) {
		return false
	}
	for i := range b.Members {
		x, y := b.Members[i], o.Members[i]
		if x.Type != y.Type || x.Offset != y.Offset || x.ArrayLen != y.ArrayLen {
			return false
		}
	}
	return true
}

// Module is the reflected interface of one shader stage.
type Module struct {
	Name            string
	Stage           Stage
	Version         int
	Profile         string
	Extensions      []string
	Inputs          []Variable
	Outputs         []Variable
	Uniforms        []Block
	PushConstant    *Block
	Samplers        []Variable
	Globals         []Variable
	Functions       []string
	UsesDerivatives bool
	UsesVertexIndex bool
}

func (m *Module) Input(location int) (Variable, bool) {
	for _, v := range m.Inputs {
		if v.Location == location {
			return v, true
		}
	}
	return Variable{}, false
}

func (m *Module) Output(location int) (Variable, bool) {
	for _, v := range m.Outputs {
		if v.Location == location {
			return v, true
		}
	}
	return Variable{}, false
}

func (m *Module) Uniform(binding int) (*Block, bool) {
	for i := range m.Uniforms {
		if m.Uniforms[i].Binding == binding {
			return &m.Uniforms[i], true
		}
	}
	return nil, false
}
