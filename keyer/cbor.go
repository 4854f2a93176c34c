package keyer

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// CBOR derives keys from canonically CBOR-encoded arguments (RFC 8949 Core
// Deterministic encoding), for argument types whose JSON rendering is lossy
// or ambiguous (binary fields, integer keys, time values).
func CBOR[A any](prefix string) func(A) string {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("keyer: cbor enc mode: %v", err))
	}
	return func(args A) string {
		b, err := em.Marshal(args)
		if err != nil {
			panic(fmt.Sprintf("keyer: cbor encode %T: %v", args, err))
		}
		return derive(prefix, b)
	}
}
