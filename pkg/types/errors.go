package types

import "fmt"

// CallError represents a failed read-only contract call.
type CallError struct {
	Contract string // contract address
	Method   string // ABI method name
	Err      error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("call %s on %s: %v", e.Method, e.Contract, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}
