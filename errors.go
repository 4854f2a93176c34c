package querycache

import "fmt"

// ContractError reports a programmer contract breach, such as passing the
// absent sentinel (nil of a nilable kind) to SetData or SetError, or handing
// Receive a result with neither variant set. These are fail-fast conditions:
// the offending action panics with a *ContractError rather than recovering.
type ContractError struct {
	Op  string // the action that was misused
	Key string // derived cache key, when known
	Msg string
}

func (e *ContractError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("querycache: %s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("querycache: %s %q: %s", e.Op, e.Key, e.Msg)
}
