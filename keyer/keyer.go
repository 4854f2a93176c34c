// Package keyer provides canonical key derivers for querycache stores.
//
// Each constructor returns a pure func(A) string that serializes the argument
// value deterministically, hashes the canonical bytes with SHA-256 and emits
// "<prefix>:<hash>" with a 16-hex-char hash. Equal argument values always
// derive identical keys regardless of map iteration or field ordering.
//
// Serialization failure means the argument type is not encodable (channels,
// funcs, ...), which is a caller contract breach: the deriver panics rather
// than degrading to unstable keys.
package keyer

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// JSON derives keys from JSON-encoded arguments. encoding/json sorts map keys,
// so the output is canonical for maps as well as structs.
func JSON[A any](prefix string) func(A) string {
	return func(args A) string {
		b, err := json.Marshal(args)
		if err != nil {
			panic(fmt.Sprintf("keyer: json encode %T: %v", args, err))
		}
		return derive(prefix, b)
	}
}

// String is an identity deriver for plain string arguments. No hashing: the
// argument already is the key, optionally namespaced by prefix.
func String(prefix string) func(string) string {
	return func(args string) string {
		if prefix == "" {
			return args
		}
		return prefix + ":" + args
	}
}

func derive(prefix string, canonical []byte) string {
	sum := sha256.Sum256(canonical)
	return prefix + ":" + hex.EncodeToString(sum[:8])
}
