package near

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

var (
	ErrMaxRetries       = errors.New("max retries exceeded")
	ErrEmptyResult      = errors.New("rpc response has no result")
	ErrInvalidResponse  = errors.New("invalid rpc response")
	ErrFunctionCall     = errors.New("function call failed")
	ErrInvalidBlockRef  = errors.New("invalid block reference")
	ErrInvalidBlockHash = errors.New("invalid block hash")
)

// RPCError is a JSON-RPC error object returned by the node.
type RPCError struct {
	Code      int64
	Message   string
	Name      string
	CauseName string
	Data      string
}

func (e *RPCError) Error() string {
	if e.CauseName != "" {
		return fmt.Sprintf("rpc error %d (%s/%s): %s", e.Code, e.Name, e.CauseName, e.Message)
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func parseRPCError(e gjson.Result) *RPCError {
	out := &RPCError{
		Code:      e.Get("code").Int(),
		Message:   e.Get("message").String(),
		Name:      e.Get("name").String(),
		CauseName: e.Get("cause.name").String(),
	}
	if data := e.Get("data"); data.Exists() {
		out.Data = data.String()
	}
	if out.Message == "" {
		out.Message = out.Data
	}
	return out
}
