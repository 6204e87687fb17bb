package portal

import (
	"errors"
	"fmt"
)

var (
	// ErrNoContent is returned when the node answers with a null result or an
	// object without a "content" field.
	ErrNoContent = errors.New("portal: no content in response")

	// ErrIDMismatch is returned when a response carries a different id than
	// the request it answers.
	ErrIDMismatch = errors.New("portal: response id mismatch")
)

// RPCError is a JSON-RPC error object returned by the node.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// IsRPCError reports whether err carries a node-side JSON-RPC error.
func IsRPCError(err error) bool {
	var re *RPCError
	return errors.As(err, &re)
}
