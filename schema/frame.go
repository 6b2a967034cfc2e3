package schema

import (
	"encoding/json"
	"fmt"

	"github.com/viant/jsonrpc"
)

// Frame is one decoded inbound peer message. Exactly one of Request, Response
// or Notification is set; Kind is derived once here and never re-derived from
// the method string downstream.
type Frame struct {
	Kind         Kind
	Request      *jsonrpc.Request
	Response     *jsonrpc.Response
	Notification *jsonrpc.Notification
}

type frameProbe struct {
	Jsonrpc string          `json:"jsonrpc"`
	Id      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonrpc.Error  `json:"error,omitempty"`
}

// DecodeFrame parses a raw peer frame and classifies it.
func DecodeFrame(data []byte) (*Frame, error) {
	probe := &frameProbe{}
	if err := json.Unmarshal(data, probe); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}
	if probe.Jsonrpc != "" && probe.Jsonrpc != jsonrpc.Version {
		return nil, fmt.Errorf("unsupported jsonrpc version: %v", probe.Jsonrpc)
	}
	if probe.Method != "" {
		if len(probe.Id) == 0 || string(probe.Id) == "null" {
			return &Frame{
				Kind:         KindOf(probe.Method),
				Notification: &jsonrpc.Notification{Method: probe.Method, Params: probe.Params},
			}, nil
		}
		request := &jsonrpc.Request{Jsonrpc: probe.Jsonrpc, Method: probe.Method, Params: probe.Params}
		request.Id = decodeId(probe.Id)
		return &Frame{Kind: KindOf(probe.Method), Request: request}, nil
	}
	if len(probe.Result) > 0 || probe.Error != nil {
		if len(probe.Id) == 0 || string(probe.Id) == "null" {
			return nil, fmt.Errorf("response frame without id")
		}
		response := &jsonrpc.Response{Jsonrpc: probe.Jsonrpc, Result: probe.Result, Error: probe.Error}
		response.Id = decodeId(probe.Id)
		return &Frame{Kind: KindResponse, Response: response}, nil
	}
	return nil, fmt.Errorf("frame is neither request, response nor notification")
}

func decodeId(raw json.RawMessage) interface{} {
	var id interface{}
	_ = json.Unmarshal(raw, &id)
	return id
}
