package ticketgate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// Request couples a parsed message with the writer its response goes to.
type Request struct {
	Msg    *Message
	writer io.Writer
}

func NewRequest(msg *Message, w io.Writer) *Request {
	return &Request{
		Msg:    msg,
		writer: w,
	}
}

// Respond answers with result. A result that cannot be encoded is answered
// with an internal error instead; only write failures are returned.
func (r *Request) Respond(ctx context.Context, result any) error {
	resp, err := NewResult(r.Msg.ID, result)
	if err != nil {
		rpcErr := ToError(err)
		logCallError(ctx, r.Msg.Method, rpcErr, err)
		return r.RespondErr(ctx, rpcErr)
	}
	return r.write(resp)
}

func (r *Request) RespondErr(ctx context.Context, rpcErr *Error) error {
	return r.write(NewErrorResponse(r.Msg.ID, rpcErr))
}

func (r *Request) write(resp *Response) error {
	m, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	if _, err := r.writer.Write(m); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	return nil
}
