package client

import (
	"encoding/json"
	"fmt"
	"time"
)

// SessionInfo describes a remote session.
type SessionInfo struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	LastUsed  time.Time `json:"last_used"`
	Location  string    `json:"location"`
}

// CreateSessionRequest optionally names the unit to start in.
type CreateSessionRequest struct {
	Unit string `json:"unit,omitempty"`
}

// CreateSessionResponse carries the new session and the banner it printed.
type CreateSessionResponse struct {
	Session SessionInfo    `json:"session"`
	Banner  *ExecuteResult `json:"banner"`
}

type listSessionsResponse struct {
	Sessions []SessionInfo `json:"sessions"`
}

type removeSessionRequest struct {
	SessionID string `json:"session_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ExecuteParams are the parameters of console.execute.
type ExecuteParams struct {
	SessionID string `json:"session_id"`
	Line      string `json:"line"`
}

// ExecuteResult is what one line produced on the server.
type ExecuteResult struct {
	Output   []string `json:"output"`
	Errors   []string `json:"errors"`
	Location string   `json:"location"`
	More     bool     `json:"more"`
}

type jsonrpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      int64           `json:"id"`
}

type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      int64           `json:"id"`
}

// RPCError is a JSON-RPC error returned by the server.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("JSON-RPC error [%d]: %s: %v", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("JSON-RPC error [%d]: %s", e.Code, e.Message)
}
