package ticketgate

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeNetworkError   = -32000
)

// Error is a structured JSON-RPC error. Handlers return it to choose the code
// sent to the caller; the backend adapter returns it with the HTTP status as code.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type MethodNotFoundError struct {
	Method string
}

func (e *MethodNotFoundError) Error() string {
	return "unknown method: " + e.Method
}

// ValidationError lists every violation found while binding params.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Violations, "; ")
}

// UnsupportedValueError reports a well-typed argument whose value the method
// cannot serve, e.g. an unknown report type.
type UnsupportedValueError struct {
	Field string
	Value string
}

func (e *UnsupportedValueError) Error() string {
	return fmt.Sprintf("unsupported %s: %s", e.Field, e.Value)
}

// ToError maps any dispatch failure to exactly one RPC error.
func ToError(err error) *Error {
	var (
		rpcErr         *Error
		notFoundErr    *MethodNotFoundError
		validationErr  *ValidationError
		unsupportedErr *UnsupportedValueError
		netErr         net.Error
	)

	switch {
	case errors.As(err, &rpcErr):
		return rpcErr
	case errors.As(err, &validationErr):
		return &Error{
			Code:    CodeInvalidParams,
			Message: "Invalid params: " + validationErr.Error(),
			Data:    validationErr.Violations,
		}
	case errors.As(err, &notFoundErr):
		return &Error{Code: CodeMethodNotFound, Message: "Method not found: " + notFoundErr.Method}
	case errors.As(err, &unsupportedErr):
		return &Error{Code: CodeMethodNotFound, Message: "Method not found: " + unsupportedErr.Error()}
	case errors.As(err, &netErr):
		return &Error{Code: CodeNetworkError, Message: "Network error: " + err.Error()}
	default:
		return &Error{Code: CodeInternalError, Message: "Internal server error: " + err.Error()}
	}
}

// IsNetworkError reports whether err carries a transport failure.
func IsNetworkError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}
