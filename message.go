package ticketgate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

const Version = "2.0"

var nullID = json.RawMessage("null")

// Message is an incoming JSON-RPC request. ID is kept as raw JSON so it can be
// echoed back without being interpreted.
type Message struct {
	JSONRPC string          `json:"jsonrpc,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response carries exactly one of Result or Error.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// ParseMessage decodes and checks the envelope. Returned errors are ready to be
// sent back with a null id.
func ParseMessage(raw []byte) (*Message, *Error) {
	msg := &Message{}
	if err := json.Unmarshal(raw, msg); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) || !json.Valid(raw) {
			return nil, &Error{Code: CodeParseError, Message: "Parse error"}
		}
		return nil, &Error{Code: CodeInvalidRequest, Message: "Invalid Request", Data: err.Error()}
	}

	if err := msg.validate(); err != nil {
		return nil, &Error{Code: CodeInvalidRequest, Message: "Invalid Request", Data: err.Error()}
	}

	return msg, nil
}

func (m *Message) validate() error {
	if m.Method == "" {
		return errors.New("method is required")
	}
	if len(m.ID) == 0 || bytes.Equal(m.ID, nullID) {
		return errors.New("id is required")
	}
	if !validID(m.ID) {
		return errors.New("id must be a string or an integer")
	}

	params := bytes.TrimSpace(m.Params)
	if len(params) > 0 && !bytes.Equal(params, nullID) && params[0] != '{' {
		return errors.New("params must be an object")
	}

	return nil
}

func validID(id json.RawMessage) bool {
	dec := json.NewDecoder(bytes.NewReader(id))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return false
	}

	switch v := v.(type) {
	case string:
		return true
	case json.Number:
		_, err := v.Int64()
		return err == nil
	default:
		return false
	}
}

// ParamsOrEmpty returns the params object, "{}" when omitted or null.
func (m *Message) ParamsOrEmpty() json.RawMessage {
	params := bytes.TrimSpace(m.Params)
	if len(params) == 0 || bytes.Equal(params, nullID) {
		return json.RawMessage("{}")
	}
	return params
}

func NewResult(id json.RawMessage, result any) (*Response, error) {
	resultData, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &Response{
		JSONRPC: Version,
		Result:  resultData,
		ID:      echoID(id),
	}, nil
}

func NewErrorResponse(id json.RawMessage, rpcErr *Error) *Response {
	return &Response{
		JSONRPC: Version,
		Error:   rpcErr,
		ID:      echoID(id),
	}
}

func echoID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return nullID
	}
	return id
}
