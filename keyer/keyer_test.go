package keyer

import (
	"strings"
	"testing"
)

type query struct {
	ID   int    `json:"id" msgpack:"id"`
	Name string `json:"name" msgpack:"name"`
}

func TestJSONDeterministic(t *testing.T) {
	k := JSON[map[string]any]("q")

	a := map[string]any{"b": 2, "a": 1, "c": "x"}
	b := map[string]any{"c": "x", "a": 1, "b": 2}

	// Repeated derivation of equal maps must agree regardless of insertion
	// or iteration order.
	for i := 0; i < 50; i++ {
		if k(a) != k(b) {
			t.Fatalf("equal maps derived different keys: %q vs %q", k(a), k(b))
		}
	}

	if k(a) == k(map[string]any{"a": 1, "b": 2, "c": "y"}) {
		t.Fatalf("different values derived the same key")
	}
}

func TestJSONFormat(t *testing.T) {
	k := JSON[query]("user")
	got := k(query{ID: 1, Name: "Ada"})
	if !strings.HasPrefix(got, "user:") {
		t.Fatalf("key %q missing prefix", got)
	}
	if len(got) != len("user:")+16 {
		t.Fatalf("key %q hash length = %d, want 16", got, len(got)-len("user:"))
	}
	if got != k(query{ID: 1, Name: "Ada"}) {
		t.Fatalf("keyer not deterministic for structs")
	}
}

func TestCBORDeterministic(t *testing.T) {
	k := CBOR[map[string]any]("q")
	a := map[string]any{"x": 1, "y": []any{"a", "b"}}
	b := map[string]any{"y": []any{"a", "b"}, "x": 1}
	for i := 0; i < 50; i++ {
		if k(a) != k(b) {
			t.Fatalf("cbor keyer not canonical")
		}
	}
	if k(a) == k(map[string]any{"x": 2, "y": []any{"a", "b"}}) {
		t.Fatalf("different values derived the same key")
	}
}

func TestMsgpackDeterministic(t *testing.T) {
	k := Msgpack[map[string]int]("q")
	a := map[string]int{"a": 1, "b": 2, "c": 3, "d": 4}
	b := map[string]int{"d": 4, "c": 3, "b": 2, "a": 1}
	for i := 0; i < 50; i++ {
		if k(a) != k(b) {
			t.Fatalf("msgpack keyer not canonical")
		}
	}
}

func TestKeyersDisagreeOnEncoding(t *testing.T) {
	// Same argument, different canonical bytes: derivers must not collide
	// across serializations by accident.
	q := query{ID: 1, Name: "Ada"}
	j := JSON[query]("user")(q)
	c := CBOR[query]("user")(q)
	m := Msgpack[query]("user")(q)
	if j == c || j == m || c == m {
		t.Fatalf("independent serializations collided: json=%q cbor=%q msgpack=%q", j, c, m)
	}
}

func TestString(t *testing.T) {
	if got := String("user")("42"); got != "user:42" {
		t.Fatalf("String keyer = %q", got)
	}
	if got := String("")("42"); got != "42" {
		t.Fatalf("String keyer without prefix = %q", got)
	}
}

func TestUnencodablePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("unencodable argument must panic")
		}
	}()
	JSON[chan int]("bad")(make(chan int))
}
