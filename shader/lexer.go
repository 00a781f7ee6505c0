package shader

import (
	"fmt"
	"strings"
	"unicode"
)

// punctuation lists the characters GLSL operators and separators are made of.
const punctuation = "+-*/%=<>!&|^~?:;,.()[]{}"

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokPunct
	tokDirective
)

type token struct {
	kind tokenKind
	text string
	line int
	col  int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of file"
	case tokDirective:
		return "#" + t.text
	}
	return "'" + t.text + "'"
}

type lexer struct {
	src   []rune
	pos   int
	line  int
	col   int
	toks  []token
	diags []Diagnostic
	name  string
}

// lex splits src into tokens. Preprocessor lines become one directive
// token each; comments are dropped.
func lex(name string, src []byte) ([]token, []Diagnostic) {
	l := &lexer{src: []rune(string(src)), line: 1, col: 1, name: name}
	l.run()
	return l.toks, l.diags
}

func (l *lexer) peek(off int) rune {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *lexer) advance() rune {
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) emit(kind tokenKind, text string, line, col int) {
	l.toks = append(l.toks, token{kind: kind, text: text, line: line, col: col})
}

func (l *lexer) run() {
	lineStart := true
	for l.pos < len(l.src) {
		r := l.peek(0)
		line, col := l.line, l.col
		switch {
		case r == '\n':
			l.advance()
			lineStart = true
			continue
		case unicode.IsSpace(r):
			l.advance()
			continue
		case r == '/' && l.peek(1) == '/':
			for l.pos < len(l.src) && l.peek(0) != '\n' {
				l.advance()
			}
			continue
		case r == '/' && l.peek(1) == '*':
			l.advance()
			l.advance()
			closed := false
			for l.pos < len(l.src) {
				if l.peek(0) == '*' && l.peek(1) == '/' {
					l.advance()
					l.advance()
					closed = true
					break
				}
				l.advance()
			}
			if !closed {
				l.diags = append(l.diags, Diagnostic{Source: l.name, Line: line, Column: col, Message: "unterminated comment"})
			}
			continue
		case r == '#' && lineStart:
			var sb strings.Builder
			l.advance()
			for l.pos < len(l.src) && l.peek(0) != '\n' {
				sb.WriteRune(l.advance())
			}
			l.emit(tokDirective, strings.TrimSpace(sb.String()), line, col)
			continue
		case r == '_' || unicode.IsLetter(r):
			start := l.pos
			for l.pos < len(l.src) && (l.peek(0) == '_' || unicode.IsLetter(l.peek(0)) || unicode.IsDigit(l.peek(0))) {
				l.advance()
			}
			l.emit(tokIdent, string(l.src[start:l.pos]), line, col)
		case unicode.IsDigit(r) || (r == '.' && unicode.IsDigit(l.peek(1))):
			start := l.pos
			var prev rune
			for l.pos < len(l.src) && isNumberRune(l.peek(0), prev) {
				prev = l.advance()
			}
			l.emit(tokNumber, string(l.src[start:l.pos]), line, col)
		case strings.ContainsRune(punctuation, r):
			l.advance()
			l.emit(tokPunct, string(r), line, col)
		default:
			l.advance()
			l.diags = append(l.diags, Diagnostic{Source: l.name, Line: line, Column: col,
				Message: fmt.Sprintf("unexpected character %q", r)})
		}
		lineStart = false
	}
	l.emit(tokEOF, "", l.line, l.col)
}

func isNumberRune(r, prev rune) bool {
	switch {
	case unicode.IsDigit(r), r == '.', r == 'x', r == 'X':
		return true
	case r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		return true
	case r == 'u' || r == 'U':
		return true
	case (r == '+' || r == '-') && (prev == 'e' || prev == 'E'):
		return true
	}
	return false
}
