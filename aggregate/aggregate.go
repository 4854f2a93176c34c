// Package aggregate combines several cache entries' states into one
// classification, driven by a short priority-spec string.
//
// Expressions are evaluated left to right; the first that matches decides the
// result:
//
//	l  any entry is loading            -> Loading
//	e  any entry holds an error        -> Error
//	d  any entry holds data            -> Data
//	L  all entries loading, else the whole result is None
//	E  all entries errored, else the whole result is None
//	D  all entries hold data, else the whole result is None
//	n  matches unconditionally         -> None
//	c?t:f  if token c matches, evaluate t, else f
//
// "led" therefore reads: loading while anything loads, then error if anything
// failed, then data if anything arrived, otherwise None. Any other character
// is a configuration error and fails fast with *UnknownTokenError.
package aggregate

import "fmt"

// Class is the aggregated classification of a set of entries.
type Class int

const (
	None Class = iota
	Loading
	Error
	Data
)

func (c Class) String() string {
	switch c {
	case Loading:
		return "loading"
	case Error:
		return "error"
	case Data:
		return "data"
	default:
		return "none"
	}
}

// State is the slice of entry state the language can observe. A
// *querycache.Entry satisfies it.
type State interface {
	Loading() bool
	HasData() bool
	HasError() bool
}

// UnknownTokenError reports a token outside the language. Unrecognized tokens
// are configuration errors, never silently defaulted.
type UnknownTokenError struct {
	Token byte
	Pos   int
	Spec  string
}

func (e *UnknownTokenError) Error() string {
	return fmt.Sprintf("aggregate: unknown token %q at position %d in spec %q", e.Token, e.Pos, e.Spec)
}

// SyntaxError reports a structurally invalid spec (truncated ternary, missing
// branch, empty spec).
type SyntaxError struct {
	Pos  int
	Spec string
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("aggregate: %s at position %d in spec %q", e.Msg, e.Pos, e.Spec)
}

// Spec is a parsed priority spec, reusable across evaluations.
type Spec struct {
	src   string
	exprs []expr
}

type expr struct {
	cond      byte
	isTernary bool
	then, els *expr
}

// Parse validates and compiles a priority spec.
func Parse(spec string) (*Spec, error) {
	p := &parser{src: spec}
	var exprs []expr
	for !p.eof() {
		ex, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, ex)
	}
	if len(exprs) == 0 {
		return nil, &SyntaxError{Pos: 0, Spec: spec, Msg: "empty spec"}
	}
	return &Spec{src: spec, exprs: exprs}, nil
}

// Eval parses spec and classifies states. Parse separately to validate
// configuration up front or to reuse the compiled form.
func Eval(spec string, states []State) (Class, error) {
	s, err := Parse(spec)
	if err != nil {
		return None, err
	}
	return s.Eval(states), nil
}

// Eval classifies states. No expression matching yields None.
func (s *Spec) Eval(states []State) Class {
	for _, ex := range s.exprs {
		c, matched, halt := evalExpr(ex, states)
		if halt {
			// an all-form token missed: the whole result is None
			return None
		}
		if matched {
			return c
		}
	}
	return None
}

func evalExpr(ex expr, states []State) (c Class, matched, halt bool) {
	if !ex.isTernary {
		return evalToken(ex.cond, states)
	}
	if predicate(ex.cond, states) {
		return evalExpr(*ex.then, states)
	}
	return evalExpr(*ex.els, states)
}

func evalToken(tok byte, states []State) (c Class, matched, halt bool) {
	switch tok {
	case 'n':
		return None, true, false
	case 'l', 'e', 'd':
		if anyMatch(tok, states) {
			return classOf(tok), true, false
		}
		return None, false, false
	default: // 'L', 'E', 'D'; Parse admits nothing else
		if allMatch(tok, states) {
			return classOf(tok), true, false
		}
		return None, false, true
	}
}

// predicate is the condition-position reading of a token: all-form misses
// select the else branch instead of halting.
func predicate(tok byte, states []State) bool {
	switch tok {
	case 'n':
		return true
	case 'l', 'e', 'd':
		return anyMatch(tok, states)
	default:
		return allMatch(tok, states)
	}
}

func classOf(tok byte) Class {
	switch tok {
	case 'l', 'L':
		return Loading
	case 'e', 'E':
		return Error
	case 'd', 'D':
		return Data
	default:
		return None
	}
}

func anyMatch(tok byte, states []State) bool {
	for _, st := range states {
		if stateMatches(tok, st) {
			return true
		}
	}
	return false
}

func allMatch(tok byte, states []State) bool {
	for _, st := range states {
		if !stateMatches(tok, st) {
			return false
		}
	}
	return true
}

func stateMatches(tok byte, st State) bool {
	switch tok {
	case 'l', 'L':
		return st.Loading()
	case 'e', 'E':
		return st.HasError()
	default:
		return st.HasData()
	}
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) next() byte {
	b := p.src[p.pos]
	p.pos++
	return b
}

func (p *parser) peek() (byte, bool) {
	if p.eof() {
		return 0, false
	}
	return p.src[p.pos], true
}

func (p *parser) parseExpr() (expr, error) {
	tokPos := p.pos
	tok := p.next()
	if !isToken(tok) {
		return expr{}, &UnknownTokenError{Token: tok, Pos: tokPos, Spec: p.src}
	}
	if b, ok := p.peek(); !ok || b != '?' {
		return expr{cond: tok}, nil
	}
	p.next() // consume '?'
	if p.eof() {
		return expr{}, &SyntaxError{Pos: p.pos, Spec: p.src, Msg: "ternary missing then-branch"}
	}
	then, err := p.parseExpr()
	if err != nil {
		return expr{}, err
	}
	if b, ok := p.peek(); !ok || b != ':' {
		return expr{}, &SyntaxError{Pos: p.pos, Spec: p.src, Msg: "ternary missing ':'"}
	}
	p.next() // consume ':'
	if p.eof() {
		return expr{}, &SyntaxError{Pos: p.pos, Spec: p.src, Msg: "ternary missing else-branch"}
	}
	els, err := p.parseExpr()
	if err != nil {
		return expr{}, err
	}
	return expr{cond: tok, isTernary: true, then: &then, els: &els}, nil
}

func isToken(b byte) bool {
	switch b {
	case 'l', 'e', 'd', 'L', 'E', 'D', 'n':
		return true
	}
	return false
}
