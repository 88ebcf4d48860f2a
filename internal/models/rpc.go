package models

import "encoding/json"

// RPCRequest is a JSON-RPC 2.0 request envelope
type RPCRequest struct {
	Jsonrpc string        `json:"jsonrpc"`
	ID      any           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// RPCResponse is a JSON-RPC 2.0 response or notification envelope
type RPCResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Params  *RPCParams      `json:"params,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCParams carries a subscription notification
type RPCParams struct {
	Subscription json.RawMessage `json:"subscription"`
	Result       json.RawMessage `json:"result"`
}

// RPCError is a JSON-RPC error object
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}
