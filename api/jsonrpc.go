package api

import (
	"context"
	"encoding/json"
	"fmt"
)

// MethodExecute feeds one line to a session's console.
const MethodExecute = "console.execute"

// JSONRPCRequest is a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id"`
}

// JSONRPCResponse is a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	Result  any           `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
	ID      any           `json:"id"`
}

// JSONRPCError is a JSON-RPC 2.0 error object.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error codes
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

// ExecuteParams are the parameters of console.execute.
type ExecuteParams struct {
	SessionID string `json:"session_id"`
	Line      string `json:"line"`
}

// ExecuteResult is what one input line produced.
type ExecuteResult struct {
	Output   []string `json:"output"`
	Errors   []string `json:"errors"`
	Location string   `json:"location"`
	// More is set while the console waits for continuation lines.
	More bool `json:"more"`
}

// HandleJSONRPC answers one request.
func HandleJSONRPC(ctx context.Context, sm *SessionManager, req *JSONRPCRequest) *JSONRPCResponse {
	resp := &JSONRPCResponse{JSONRPC: "2.0", ID: req.ID}

	if req.JSONRPC != "2.0" {
		resp.Error = &JSONRPCError{Code: InvalidRequest, Message: "Invalid JSON-RPC version"}
		return resp
	}

	switch req.Method {
	case MethodExecute:
		result, rpcErr := handleExecute(ctx, sm, req.Params)
		if rpcErr != nil {
			resp.Error = rpcErr
		} else {
			resp.Result = result
		}
	default:
		resp.Error = &JSONRPCError{
			Code:    MethodNotFound,
			Message: fmt.Sprintf("Method not found: %s", req.Method),
		}
	}
	return resp
}

func handleExecute(ctx context.Context, sm *SessionManager, raw json.RawMessage) (*ExecuteResult, *JSONRPCError) {
	var params ExecuteParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, &JSONRPCError{Code: InvalidParams, Message: "Invalid parameters", Data: err.Error()}
	}
	if params.SessionID == "" {
		return nil, &JSONRPCError{Code: InvalidParams, Message: "session_id is required"}
	}

	s, err := sm.GetSession(params.SessionID)
	if err != nil {
		return nil, &JSONRPCError{Code: InvalidParams, Message: "Invalid session", Data: err.Error()}
	}
	// An empty line is valid: it ends a continuation.
	return s.Execute(ctx, params.Line), nil
}
