package ticketgate_test

import (
	"bytes"
	"context"
	"encoding/json"
	"reflect"
	"testing"

	"github.com/tulinowpavel/ticketgate"
)

func TestRequest__Respond(t *testing.T) {

	buf := bytes.Buffer{}

	req := ticketgate.NewRequest(
		&ticketgate.Message{
			ID:     json.RawMessage(`1`),
			Method: "banana",
			Params: json.RawMessage(`{"message": "hello banana"}`),
		},
		&buf,
	)

	if err := req.Respond(context.Background(), map[string]any{
		"banana": "forever",
	}); err != nil {
		t.Fatalf("unexpected respond error: %v", err)
	}

	var res map[string]any
	if err := json.Unmarshal(buf.Bytes(), &res); err != nil {
		t.Fatalf("unmarshal result message error: %v", err)
	}

	refRes := map[string]any{
		"jsonrpc": "2.0",
		"id":      float64(1),
		"result": map[string]any{
			"banana": "forever",
		},
	}

	if !reflect.DeepEqual(res, refRes) {
		t.Fatalf("result message not equals to reference: reference=%#v actual=%#v", refRes, res)
	}

}

func TestRequest__RespondWithError(t *testing.T) {

	buf := bytes.Buffer{}

	req := ticketgate.NewRequest(&ticketgate.Message{
		ID:     json.RawMessage(`"abc"`),
		Method: "banana",
		Params: json.RawMessage(`{"message": "hello banana"}`),
	}, &buf)

	if err := req.RespondErr(context.Background(), &ticketgate.Error{
		Code:    1000,
		Message: "some error",
		Data: map[string]any{
			"banana": "forever",
		},
	}); err != nil {
		t.Fatalf("unexpected respond error: %v", err)
	}

	var res map[string]any
	if err := json.Unmarshal(buf.Bytes(), &res); err != nil {
		t.Fatalf("unmarshal result message error: %v", err)
	}

	refRes := map[string]any{
		"jsonrpc": "2.0",
		"id":      "abc",
		"error": map[string]any{
			"code":    float64(1000),
			"message": "some error",
			"data": map[string]any{
				"banana": "forever",
			},
		},
	}

	if !reflect.DeepEqual(res, refRes) {
		t.Fatalf("result message not equals to reference: reference=%#v actual=%#v", refRes, res)
	}
}

func TestRequest__RespondWithNullResult(t *testing.T) {
	buf := bytes.Buffer{}

	req := ticketgate.NewRequest(&ticketgate.Message{ID: json.RawMessage(`2`), Method: "banana"}, &buf)

	if err := req.Respond(context.Background(), nil); err != nil {
		t.Fatalf("unexpected respond error: %v", err)
	}

	if got, want := buf.String(), `{"jsonrpc":"2.0","result":null,"id":2}`; got != want {
		t.Fatalf("unexpected response: want=%s got=%s", want, got)
	}
}

func TestRequest__RespondWithUnencodableResult(t *testing.T) {
	buf := bytes.Buffer{}

	req := ticketgate.NewRequest(&ticketgate.Message{ID: json.RawMessage(`3`), Method: "banana"}, &buf)

	if err := req.Respond(context.Background(), make(chan int)); err != nil {
		t.Fatalf("unexpected respond error: %v", err)
	}

	var res map[string]any
	if err := json.Unmarshal(buf.Bytes(), &res); err != nil {
		t.Fatalf("unmarshal result message error: %v", err)
	}

	rpcErr, ok := res["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error envelope, got %s", buf.String())
	}
	if got := rpcErr["code"]; got != float64(ticketgate.CodeInternalError) {
		t.Fatalf("unexpected error code: %v", got)
	}
	if got := res["id"]; got != float64(3) {
		t.Fatalf("unexpected id: %v", got)
	}
}
