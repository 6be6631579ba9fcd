package jsonrpc

// ErrorCode is a JSON-RPC 2.0 error code.
type ErrorCode int

// Protocol-reserved codes per the JSON-RPC 2.0 specification.
const (
	// ErrorCodeParseError indicates invalid JSON was received by the server.
	ErrorCodeParseError ErrorCode = -32700
	// ErrorCodeInvalidRequest indicates the JSON sent is not a valid Request object.
	ErrorCodeInvalidRequest ErrorCode = -32600
	// ErrorCodeMethodNotFound indicates the method does not exist / is not available.
	ErrorCodeMethodNotFound ErrorCode = -32601
	// ErrorCodeInvalidParams indicates invalid method parameters.
	ErrorCodeInvalidParams ErrorCode = -32602
	// ErrorCodeInternalError indicates an internal JSON-RPC error.
	ErrorCodeInternalError ErrorCode = -32603
)

// Application codes in the implementation-defined range. These are stable:
// clients key retry behavior off them.
const (
	// ErrorCodeAuthRequired indicates no credential is bound to the session and
	// the invoked handler needs one. HTTP binding returns 401 alongside.
	ErrorCodeAuthRequired ErrorCode = -32001
	// ErrorCodeRateLimited indicates the caller exhausted its token bucket.
	// error.data carries {"retryAfter": <seconds>}. HTTP binding returns 429.
	ErrorCodeRateLimited ErrorCode = -32002
	// ErrorCodeUnavailable indicates the upstream dependency is unhealthy:
	// circuit open or transient retries exhausted.
	ErrorCodeUnavailable ErrorCode = -32003
)

// Error is a JSON-RPC error object.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Data    any       `json:"data,omitempty"`
}

func (e *Error) Error() string { return e.Message }
