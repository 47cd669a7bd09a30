package socketrpc

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
)

// JSON-RPC 2.0 Method Reference
//
// The socket RPC server exposes model.StatusSource over a Unix domain
// socket so several clients can share one upstream connection.
//
//   Method          Params    Result
//   ────────────    ──────    ────────────────────
//   GetIdentity     (none)    model.ServerIdentity
//   GetGameState    (none)    model.GameState
//   Ping            (none)    "pong"
//
// Error codes follow JSON-RPC 2.0:
//   -32700  Parse error (malformed JSON)
//   -32601  Method not found
//   -32603  Internal error (marshal failure)
//   -32000  Application error (upstream transport failure)
//   -32001  Upstream reported failure in its response envelope
//   -32002  Upstream call timed out

const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInternal       = -32603
	CodeApplication    = -32000
	CodeEnvelope       = -32001
	CodeTimeout        = -32002
)

const (
	MethodGetIdentity  = "GetIdentity"
	MethodGetGameState = "GetGameState"
	MethodPing         = "Ping"
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string { return e.Message }

// EnvelopeFailed reports whether the upstream answered with a failure.
func (e *RPCError) EnvelopeFailed() bool { return e.Code == CodeEnvelope }

// Unwrap exposes upstream timeouts as context.DeadlineExceeded.
func (e *RPCError) Unwrap() error {
	if e.Code == CodeTimeout {
		return context.DeadlineExceeded
	}
	return nil
}

// DefaultSocketPath returns the default Unix socket path.
// It prefers $XDG_RUNTIME_DIR/hllstatus/hllstatus.sock, falling back to
// ~/.local/state/hllstatus/hllstatus.sock.
func DefaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "hllstatus", "hllstatus.sock")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "/tmp/hllstatus.sock"
	}
	return filepath.Join(home, ".local", "state", "hllstatus", "hllstatus.sock")
}
