package keyer

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Msgpack derives keys from msgpack-encoded arguments with sorted map keys,
// the compact alternative to CBOR. Struct encoding is field-order stable; map
// determinism comes from SetSortMapKeys.
func Msgpack[A any](prefix string) func(A) string {
	return func(args A) string {
		var buf bytes.Buffer
		enc := msgpack.NewEncoder(&buf)
		enc.SetSortMapKeys(true)
		if err := enc.Encode(args); err != nil {
			panic(fmt.Sprintf("keyer: msgpack encode %T: %v", args, err))
		}
		return derive(prefix, buf.Bytes())
	}
}
