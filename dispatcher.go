package ticketgate

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"reflect"

	"github.com/invopop/jsonschema"
)

// MethodToolsList is answered from the registry itself and never reaches a handler.
const MethodToolsList = "tools/list"

// Dispatcher maps method names to typed handlers. The table is filled once at
// startup and only read afterwards.
type Dispatcher struct {
	methods map[string]*Method
	order   []string
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		methods: make(map[string]*Method),
	}
}

type Method struct {
	name    string
	docs    string
	result  string
	errors  map[int]string
	handler MethodHandler
}

func (m *Method) ServeJSONRPC(ctx context.Context, params json.RawMessage) (any, error) {
	return m.handler.handler(ctx, params)
}

func (d *Dispatcher) Method(name string) *MethodBuilder {
	return &MethodBuilder{
		dispatcher: d,
		name:       name,
		errors:     make(map[int]string),
	}
}

// Dispatch binds params and runs the handler of method. The result is returned
// as the handler produced it.
func (d *Dispatcher) Dispatch(ctx context.Context, method string, params json.RawMessage) (any, error) {
	m, ok := d.methods[method]
	if !ok {
		return nil, &MethodNotFoundError{Method: method}
	}
	return m.ServeJSONRPC(ctx, params)
}

// invoke runs one parsed request, including the tools/list catalog.
func (d *Dispatcher) invoke(ctx context.Context, msg *Message) (any, error) {
	if msg.Method == MethodToolsList {
		return d.Catalog(), nil
	}
	return d.Dispatch(ctx, msg.Method, msg.ParamsOrEmpty())
}

func logCallError(ctx context.Context, method string, rpcErr *Error, err error) {
	attrs := []any{
		slog.String("method", method),
		slog.Int("code", rpcErr.Code),
		slog.String("error", err.Error()),
	}

	switch rpcErr.Code {
	case CodeInternalError:
		slog.ErrorContext(ctx, "unexpected error while processing rpc call", attrs...)
	case CodeNetworkError:
		slog.ErrorContext(ctx, "network error while processing rpc call", attrs...)
	default:
		slog.WarnContext(ctx, "rpc call failed", attrs...)
	}
}

// ServeRaw parses raw and writes a response envelope to w. Only write failures
// are returned.
func (d *Dispatcher) ServeRaw(ctx context.Context, w io.Writer, raw []byte) error {
	msg, rpcErr := ParseMessage(raw)
	if rpcErr != nil {
		return NewRequest(&Message{}, w).RespondErr(ctx, rpcErr)
	}
	return d.Serve(ctx, w, msg)
}

func (d *Dispatcher) Serve(ctx context.Context, w io.Writer, msg *Message) error {
	req := NewRequest(msg, w)

	result, err := d.invoke(ctx, msg)
	if err != nil {
		rpcErr := ToError(err)
		logCallError(ctx, msg.Method, rpcErr, err)
		return req.RespondErr(ctx, rpcErr)
	}

	return req.Respond(ctx, result)
}

type MethodHandlerFunc func(ctx context.Context, params json.RawMessage) (any, error)

type MethodHandler struct {
	paramsName string
	params     *jsonschema.Schema
	handler    MethodHandlerFunc
}

type MethodBuilder struct {
	dispatcher *Dispatcher
	name       string
	docs       string
	result     string
	errors     map[int]string
	handler    MethodHandler
}

func (b *MethodBuilder) SetDocs(docs string) *MethodBuilder {
	b.docs = docs
	return b
}

// SetResult names the result type shown in the catalog.
func (b *MethodBuilder) SetResult(name string) *MethodBuilder {
	b.result = name
	return b
}

func (b *MethodBuilder) DefineError(code int, description string) *MethodBuilder {
	b.errors[code] = description
	return b
}

func (b *MethodBuilder) SetHandler(h MethodHandler) *MethodBuilder {
	b.handler = h
	return b
}

func (b *MethodBuilder) SetHandlerFunc(h MethodHandlerFunc) *MethodBuilder {
	b.handler = MethodHandler{
		handler: h,
	}
	return b
}

func (b *MethodBuilder) Register() {
	if _, ok := b.dispatcher.methods[b.name]; !ok {
		b.dispatcher.order = append(b.dispatcher.order, b.name)
	}
	b.dispatcher.methods[b.name] = &Method{
		name:    b.name,
		docs:    b.docs,
		result:  b.result,
		errors:  b.errors,
		handler: b.handler,
	}
}

// NewTypedHandler wraps h so that params are bound into TParams before it runs.
// A binding failure returns a *ValidationError and h is not called.
func NewTypedHandler[TParams any, PT interface {
	*TParams
	Args
}, TResult any](h func(ctx context.Context, params TParams) (TResult, error)) MethodHandler {
	return MethodHandler{
		paramsName: reflect.TypeOf((*TParams)(nil)).Elem().Name(),
		params:     GenSchema[TParams](),
		handler: func(ctx context.Context, raw json.RawMessage) (any, error) {
			params, err := BindParams[TParams, PT](raw)
			if err != nil {
				return nil, err
			}

			result, err := h(ctx, params)
			if err != nil {
				return nil, err
			}
			return result, nil
		},
	}
}

func GenSchema[T any]() *jsonschema.Schema {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return jsonschema.ReflectFromType(t)
}

type Catalog struct {
	Methods []MethodInfo `json:"methods"`
}

type MethodInfo struct {
	Name         string             `json:"name"`
	Description  string             `json:"description,omitempty"`
	Params       string             `json:"params"`
	Result       string             `json:"result"`
	ParamsSchema *jsonschema.Schema `json:"params_schema,omitempty"`
	Errors       map[int]string     `json:"errors,omitempty"`
}

// Catalog lists the registered methods in registration order.
func (d *Dispatcher) Catalog() Catalog {
	c := Catalog{Methods: make([]MethodInfo, 0, len(d.order))}

	for _, name := range d.order {
		m := d.methods[name]

		info := MethodInfo{
			Name:         m.name,
			Description:  m.docs,
			Params:       m.handler.paramsName,
			Result:       m.result,
			ParamsSchema: m.handler.params,
		}
		if len(m.errors) > 0 {
			info.Errors = m.errors
		}
		if info.Result == "" {
			info.Result = "any"
		}

		c.Methods = append(c.Methods, info)
	}

	return c
}
