package shader

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

var supportedVersions = []int{140, 150, 310, 320, 330, 400, 410, 420, 430, 440, 450, 460}

var derivativeFuncs = map[string]bool{
	"dFdx":   true,
	"dFdy":   true,
	"fwidth": true,
}

type structType struct {
	info    typeInfo
	members []Member
}

type parser struct {
	name    string
	toks    []token
	pos     int
	diags   []Diagnostic
	mod     *Module
	structs map[string]structType
	hasMain bool
	// desync is set when a syntax error leaves the parser mid-declaration.
	desync bool
}

// Parse reflects the interface of one GLSL stage. Malformed sources return
// a ShaderCompileError listing every problem found.
func Parse(name string, stage Stage, src []byte) (*Module, error) {
	toks, diags := lex(name, src)
	p := &parser{
		name:    name,
		toks:    toks,
		diags:   diags,
		mod:     &Module{Name: name, Stage: stage},
		structs: make(map[string]structType),
	}
	p.parse()
	if len(p.diags) > 0 {
		return nil, ShaderCompileError{Name: name, Stage: stage, Diagnostics: p.diags}
	}
	return p.mod, nil
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) peekAt(off int) token {
	if p.pos+off >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+off]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(at token, format string, args ...any) {
	p.desync = true
	p.report(at, format, args...)
}

// report records a diagnostic that leaves the parser in sync.
func (p *parser) report(at token, format string, args ...any) {
	p.diags = append(p.diags, Diagnostic{
		Source:  p.name,
		Line:    at.line,
		Column:  at.col,
		Message: fmt.Sprintf(format, args...),
	})
}

func (p *parser) is(text string) bool {
	t := p.peek()
	return (t.kind == tokPunct || t.kind == tokIdent) && t.text == text
}

func (p *parser) accept(text string) bool {
	if p.is(text) {
		p.next()
		return true
	}
	return false
}

// expect consumes text or records a diagnostic at the offending token.
func (p *parser) expect(text string) bool {
	if p.accept(text) {
		return true
	}
	if text == ";" && p.pos > 0 {
		prev := p.toks[p.pos-1]
		at := token{line: prev.line, col: prev.col + len([]rune(prev.text))}
		// A declaration ending its line is complete; parsing resumes at
		// the next line.
		if p.peek().line > prev.line {
			p.report(at, "expected ';' after %s", prev)
		} else {
			p.errorf(at, "expected ';' after %s", prev)
		}
		return false
	}
	p.errorf(p.peek(), "expected '%s' but found %s", text, p.peek())
	return false
}

func (p *parser) ident() (token, bool) {
	t := p.peek()
	if t.kind != tokIdent {
		p.errorf(t, "expected identifier but found %s", t)
		return t, false
	}
	return p.next(), true
}

// recover skips to the end of the current declaration.
func (p *parser) recover() {
	depth := 0
	for {
		t := p.peek()
		switch {
		case t.kind == tokEOF:
			return
		case t.kind == tokDirective && depth == 0:
			return
		case t.text == "{":
			depth++
		case t.text == "}":
			depth--
			if depth <= 0 {
				p.next()
				p.accept(";")
				return
			}
		case t.text == ";" && depth == 0:
			p.next()
			return
		}
		p.next()
	}
}

func (p *parser) parse() {
	if first := p.peek(); first.kind != tokDirective || !strings.HasPrefix(first.text, "version") {
		p.report(first, "missing #version directive")
	}
	for p.peek().kind != tokEOF {
		t := p.peek()
		if t.kind == tokDirective {
			p.next()
			p.directive(t, p.pos == 1)
			continue
		}
		p.desync = false
		p.declaration()
		if p.desync {
			p.recover()
		}
	}
	if !p.hasMain {
		p.report(p.peek(), "no void main() defined")
	}
}

func (p *parser) directive(t token, first bool) {
	fields := strings.Fields(t.text)
	if len(fields) == 0 {
		return
	}
	switch fields[0] {
	case "version":
		if !first {
			p.report(t, "#version must be the first directive")
			return
		}
		if len(fields) < 2 {
			p.report(t, "#version needs a number")
			return
		}
		v, err := strconv.Atoi(fields[1])
		if err != nil || !slices.Contains(supportedVersions, v) {
			p.report(t, "unsupported GLSL version %q", fields[1])
			return
		}
		p.mod.Version = v
		if len(fields) > 2 {
			p.mod.Profile = fields[2]
		}
	case "extension":
		rest := strings.TrimSpace(strings.TrimPrefix(t.text, "extension"))
		name, behavior, ok := strings.Cut(rest, ":")
		name, behavior = strings.TrimSpace(name), strings.TrimSpace(behavior)
		if !ok || name == "" {
			p.report(t, "malformed #extension directive")
			return
		}
		switch behavior {
		case "enable", "require", "warn", "disable":
		default:
			p.report(t, "unknown extension behavior %q", behavior)
			return
		}
		p.mod.Extensions = append(p.mod.Extensions, name)
	case "pragma", "line":
	default:
		p.report(t, "unsupported preprocessor directive #%s", fields[0])
	}
}

type qualifiers struct {
	values map[string]int
	flags  map[string]bool
}

func (q qualifiers) get(key string, def int) int {
	if v, ok := q.values[key]; ok {
		return v
	}
	return def
}

func (p *parser) layout() (qualifiers, bool) {
	q := qualifiers{values: map[string]int{}, flags: map[string]bool{}}
	if !p.accept("layout") {
		return q, true
	}
	if !p.expect("(") {
		return q, false
	}
	for !p.is(")") {
		key, ok := p.ident()
		if !ok {
			return q, false
		}
		if p.accept("=") {
			num := p.next()
			v, err := strconv.Atoi(num.text)
			if num.kind != tokNumber || err != nil {
				p.errorf(num, "layout qualifier %s needs an integer", key.text)
				return q, false
			}
			q.values[key.text] = v
		} else {
			q.flags[key.text] = true
		}
		if !p.accept(",") {
			break
		}
	}
	return q, p.expect(")")
}

func (p *parser) declaration() {
	q, ok := p.layout()
	if !ok {
		return
	}
	t := p.peek()
	switch {
	case t.text == "precision":
		p.recover()
	case t.text == "struct":
		p.next()
		p.structDecl()
	case t.text == "in" || t.text == "out":
		p.next()
		p.interfaceVar(q, t.text == "in")
	case t.text == "uniform":
		p.next()
		p.uniform(q)
	case t.text == "const":
		p.next()
		p.global()
	case t.kind == tokIdent:
		p.global()
	default:
		p.errorf(t, "unexpected %s", t)
	}
}

// typeName reads a type and resolves its layout.
func (p *parser) typeName() (token, typeInfo, bool) {
	t, ok := p.ident()
	if !ok {
		return t, typeInfo{}, false
	}
	if t.text == "void" {
		return t, typeInfo{}, true
	}
	if info, ok := builtinTypes[t.text]; ok {
		return t, info, true
	}
	if st, ok := p.structs[t.text]; ok {
		return t, st.info, true
	}
	p.errorf(t, "unknown type '%s'", t.text)
	return t, typeInfo{}, false
}

func (p *parser) arraySuffix() (int, bool) {
	if !p.accept("[") {
		return 0, true
	}
	num := p.next()
	n, err := strconv.Atoi(num.text)
	if num.kind != tokNumber || err != nil || n <= 0 {
		p.errorf(num, "array size must be a positive integer")
		return 0, false
	}
	return n, p.expect("]")
}

func (p *parser) interfaceVar(q qualifiers, input bool) {
	typ, info, ok := p.typeName()
	if !ok {
		return
	}
	name, ok := p.ident()
	if !ok {
		return
	}
	arrayLen, ok := p.arraySuffix()
	if !ok || !p.expect(";") {
		return
	}
	if info.components == 0 {
		p.report(typ, "type '%s' cannot be used for stage inputs or outputs", typ.text)
		return
	}
	loc, hasLoc := q.values["location"]
	if !hasLoc {
		p.report(name, "'%s' needs a layout(location = N) qualifier", name.text)
		return
	}
	v := Variable{Name: name.text, Type: typ.text, Location: loc, ArrayLen: arrayLen, Line: name.line}

	list := &p.mod.Outputs
	if input {
		list = &p.mod.Inputs
	}
	for _, other := range *list {
		if other.Location == loc {
			p.report(name, "location %d already used by '%s'", loc, other.Name)
			return
		}
	}
	*list = append(*list, v)
}

func (p *parser) uniform(q qualifiers) {
	// uniform sampler2D tex;
	if p.peekAt(1).text != "{" {
		typ, info, ok := p.typeName()
		if !ok {
			return
		}
		name, ok := p.ident()
		if !ok || !p.expect(";") {
			return
		}
		if !info.opaque {
			p.report(typ, "non-opaque uniform '%s' must be declared inside a uniform block", name.text)
			return
		}
		p.mod.Samplers = append(p.mod.Samplers, Variable{Name: name.text, Type: typ.text, Location: q.get("binding", 0), Line: name.line})
		return
	}

	blockName, ok := p.ident()
	if !ok {
		return
	}
	push := q.flags["push_constant"]
	rule := std140
	if push || q.flags["std430"] {
		rule = std430
	}
	members, size, align, ok := p.members(rule)
	if !ok {
		return
	}
	block := Block{
		Name:         blockName.text,
		Binding:      q.get("binding", 0),
		Set:          q.get("set", 0),
		PushConstant: push,
		Members:      members,
		Size:         alignUp(size, align),
		Line:         blockName.line,
	}
	if p.peek().kind == tokIdent {
		block.Instance = p.next().text
	}
	if !p.expect(";") {
		return
	}

	if push {
		if p.mod.PushConstant != nil {
			p.report(blockName, "only one push_constant block is allowed per stage")
			return
		}
		p.mod.PushConstant = &block
		return
	}
	for _, other := range p.mod.Uniforms {
		if other.Binding == block.Binding && other.Set == block.Set {
			p.report(blockName, "binding %d already used by block '%s'", block.Binding, other.Name)
			return
		}
	}
	p.mod.Uniforms = append(p.mod.Uniforms, block)
}

// members parses a braced member list, laying it out under rule.
func (p *parser) members(rule layoutRule) ([]Member, int, int, bool) {
	if !p.expect("{") {
		return nil, 0, 0, false
	}
	var (
		members  []Member
		offset   int
		maxAlign = 1
	)
	if rule == std140 {
		maxAlign = 16
	}
	for !p.is("}") {
		if p.peek().kind == tokEOF {
			p.errorf(p.peek(), "unterminated block")
			return nil, 0, 0, false
		}
		q, ok := p.layout()
		if !ok {
			return nil, 0, 0, false
		}
		typ, info, ok := p.typeName()
		if !ok {
			return nil, 0, 0, false
		}
		if info.opaque {
			p.errorf(typ, "opaque type '%s' cannot be a block member", typ.text)
			return nil, 0, 0, false
		}
		for {
			name, ok := p.ident()
			if !ok {
				return nil, 0, 0, false
			}
			arrayLen, ok := p.arraySuffix()
			if !ok {
				return nil, 0, 0, false
			}
			align, size := info.align, info.size
			if arrayLen > 0 {
				stride := arrayStride(info, rule)
				align = max(align, stride)
				if rule == std140 {
					align = alignUp(align, 16)
				}
				size = stride * arrayLen
			}
			next := alignUp(offset, align)
			if explicit, ok := q.values["offset"]; ok {
				if explicit < offset || explicit%info.align != 0 {
					p.report(name, "offset %d of '%s' overlaps or misaligns its member", explicit, name.text)
				} else {
					next = explicit
				}
			}
			members = append(members, Member{Name: name.text, Type: typ.text, Offset: next, Size: size, ArrayLen: arrayLen})
			offset = next + size
			maxAlign = max(maxAlign, align)
			if !p.accept(",") {
				break
			}
		}
		if !p.expect(";") {
			p.desync = true
			return nil, 0, 0, false
		}
	}
	p.next()
	return members, offset, maxAlign, true
}

func (p *parser) structDecl() {
	name, ok := p.ident()
	if !ok {
		return
	}
	members, size, align, ok := p.members(std140)
	if !ok || !p.expect(";") {
		return
	}
	p.structs[name.text] = structType{
		info:    typeInfo{size: alignUp(size, align), align: alignUp(align, 16)},
		members: members,
	}
}

// global parses a function definition or a global variable.
func (p *parser) global() {
	typ, _, ok := p.typeName()
	if !ok {
		return
	}
	name, ok := p.ident()
	if !ok {
		return
	}
	if p.is("(") {
		p.function(typ, name)
		return
	}
	arrayLen, ok := p.arraySuffix()
	if !ok {
		return
	}
	if p.accept("=") && !p.skipInitializer() {
		return
	}
	if !p.expect(";") {
		return
	}
	p.mod.Globals = append(p.mod.Globals, Variable{Name: name.text, Type: typ.text, ArrayLen: arrayLen, Line: name.line})
}

// skipInitializer consumes an expression up to the ';' that ends it.
func (p *parser) skipInitializer() bool {
	var open []token
	for {
		t := p.peek()
		switch {
		case t.kind == tokEOF || t.kind == tokDirective:
			if len(open) > 0 {
				p.errorf(open[len(open)-1], "unbalanced '%s'", open[len(open)-1].text)
			} else {
				p.errorf(t, "expected ';' but found %s", t)
			}
			return false
		case t.text == ";" && len(open) == 0:
			return true
		case t.text == "(" || t.text == "[" || t.text == "{":
			open = append(open, t)
		case t.text == ")" || t.text == "]" || t.text == "}":
			if len(open) == 0 || !matches(open[len(open)-1].text, t.text) {
				p.errorf(t, "unexpected '%s'", t.text)
				return false
			}
			open = open[:len(open)-1]
		}
		p.next()
	}
}

func matches(open, close string) bool {
	return (open == "(" && close == ")") || (open == "[" && close == "]") || (open == "{" && close == "}")
}

func (p *parser) function(ret, name token) {
	p.expect("(")
	params := 0
	for !p.is(")") {
		t := p.next()
		if t.kind == tokEOF {
			p.errorf(t, "unterminated parameter list of '%s'", name.text)
			return
		}
		if t.text != "void" && t.text != "," {
			params++
		}
	}
	p.next()

	if p.accept(";") {
		return
	}
	if !p.is("{") {
		p.errorf(p.peek(), "expected '{' but found %s", p.peek())
		return
	}
	if !p.body() {
		return
	}
	if slices.Contains(p.mod.Functions, name.text) {
		p.report(name, "function '%s' redefined", name.text)
		return
	}
	p.mod.Functions = append(p.mod.Functions, name.text)
	if name.text == "main" {
		if ret.text != "void" || params != 0 {
			p.report(name, "main must be declared void main()")
			return
		}
		p.hasMain = true
	}
}

// body skips a braced function body, checking its brackets balance and
// noting the builtins it uses.
func (p *parser) body() bool {
	open := []token{p.next()}
	for len(open) > 0 {
		t := p.next()
		switch {
		case t.kind == tokEOF:
			p.errorf(open[0], "unterminated block")
			return false
		case t.kind == tokDirective:
			p.report(t, "directives inside functions are not supported")
		case t.text == "(" || t.text == "[" || t.text == "{":
			open = append(open, t)
		case t.text == ")" || t.text == "]" || t.text == "}":
			last := open[len(open)-1]
			if !matches(last.text, t.text) {
				p.report(t, "unexpected '%s', '%s' at %d:%d is still open", t.text, last.text, last.line, last.col)
				switch {
				case t.text == "}":
					// Close the innermost brace so the rest of the file parses.
					for open[len(open)-1].text != "{" {
						open = open[:len(open)-1]
					}
				case last.text == "{":
					continue
				}
			}
			open = open[:len(open)-1]
		case t.kind == tokIdent && derivativeFuncs[t.text]:
			p.mod.UsesDerivatives = true
		case t.kind == tokIdent && t.text == "gl_VertexIndex":
			p.mod.UsesVertexIndex = true
		}
	}
	return true
}
