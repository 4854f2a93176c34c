package aggregate

import (
	"errors"
	"testing"
)

type stub struct {
	loading bool
	data    bool
	err     bool
}

func (s stub) Loading() bool  { return s.loading }
func (s stub) HasData() bool  { return s.data }
func (s stub) HasError() bool { return s.err }

func states(ss ...stub) []State {
	out := make([]State, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func mustEval(t *testing.T, spec string, ss []State) Class {
	t.Helper()
	c, err := Eval(spec, ss)
	if err != nil {
		t.Fatalf("Eval(%q): %v", spec, err)
	}
	return c
}

func TestPriorityOrder(t *testing.T) {
	mixed := states(
		stub{loading: true},
		stub{err: true},
		stub{data: true},
	)

	// First matching token wins.
	if got := mustEval(t, "led", mixed); got != Loading {
		t.Fatalf("led = %v, want loading", got)
	}
	if got := mustEval(t, "eld", mixed); got != Error {
		t.Fatalf("eld = %v, want error", got)
	}
	if got := mustEval(t, "del", mixed); got != Data {
		t.Fatalf("del = %v, want data", got)
	}
}

func TestAnyTokenFallthrough(t *testing.T) {
	quiet := states(stub{data: true})

	// 'l' and 'e' miss, 'd' matches.
	if got := mustEval(t, "led", quiet); got != Data {
		t.Fatalf("led = %v, want data", got)
	}
	// Nothing matches: default None.
	if got := mustEval(t, "le", quiet); got != None {
		t.Fatalf("le = %v, want none", got)
	}
}

func TestAllForms(t *testing.T) {
	allData := states(stub{data: true}, stub{data: true})
	partial := states(stub{data: true}, stub{loading: true})

	if got := mustEval(t, "D", allData); got != Data {
		t.Fatalf("D over all-data = %v, want data", got)
	}
	// An all-form miss makes the WHOLE result None, even when later tokens
	// would have matched.
	if got := mustEval(t, "Dl", partial); got != None {
		t.Fatalf("Dl over partial = %v, want none", got)
	}
	if got := mustEval(t, "L", states(stub{loading: true}, stub{loading: true})); got != Loading {
		t.Fatalf("L = %v, want loading", got)
	}
	if got := mustEval(t, "E", states(stub{err: true}, stub{data: true})); got != None {
		t.Fatalf("E over partial errors = %v, want none", got)
	}
}

func TestExplicitNone(t *testing.T) {
	busy := states(stub{loading: true})

	// 'n' matches unconditionally and stops evaluation.
	if got := mustEval(t, "nl", busy); got != None {
		t.Fatalf("nl = %v, want none", got)
	}
	if got := mustEval(t, "ln", states(stub{data: true})); got != None {
		t.Fatalf("ln = %v, want none", got)
	}
}

func TestTernary(t *testing.T) {
	errAndData := states(stub{err: true}, stub{data: true})
	dataOnly := states(stub{data: true})

	// Condition selects the branch to evaluate.
	if got := mustEval(t, "e?d:l", errAndData); got != Data {
		t.Fatalf("e?d:l with error = %v, want data", got)
	}
	if got := mustEval(t, "e?l:d", dataOnly); got != Data {
		t.Fatalf("e?l:d without error = %v, want data", got)
	}

	// A non-matching selected branch lets evaluation continue.
	if got := mustEval(t, "e?l:ld", dataOnly); got != Data {
		t.Fatalf("e?l:ld = %v, want data from the following token", got)
	}

	// Nested ternary in a branch.
	if got := mustEval(t, "e?d:l?l:d", states(stub{loading: true})); got != Loading {
		t.Fatalf("nested ternary = %v, want loading", got)
	}
}

func TestUnknownToken(t *testing.T) {
	_, err := Eval("lxd", nil)
	var ute *UnknownTokenError
	if !errors.As(err, &ute) {
		t.Fatalf("err = %v, want *UnknownTokenError", err)
	}
	if ute.Token != 'x' || ute.Pos != 1 {
		t.Fatalf("UnknownTokenError = %+v", ute)
	}
}

func TestSyntaxErrors(t *testing.T) {
	for _, spec := range []string{"", "e?", "e?d", "e?d:"} {
		if _, err := Parse(spec); err == nil {
			t.Fatalf("Parse(%q) should fail", spec)
		}
		var se *SyntaxError
		if _, err := Parse(spec); !errors.As(err, &se) {
			t.Fatalf("Parse(%q) err = %v, want *SyntaxError", spec, err)
		}
	}
}

func TestParseReuse(t *testing.T) {
	s, err := Parse("led")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := s.Eval(states(stub{loading: true})); got != Loading {
		t.Fatalf("first eval = %v", got)
	}
	if got := s.Eval(states(stub{data: true})); got != Data {
		t.Fatalf("second eval = %v", got)
	}
}

func TestClassString(t *testing.T) {
	for c, want := range map[Class]string{
		None:    "none",
		Loading: "loading",
		Error:   "error",
		Data:    "data",
	} {
		if c.String() != want {
			t.Fatalf("Class(%d).String() = %q, want %q", int(c), c.String(), want)
		}
	}
}
