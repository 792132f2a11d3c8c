package ticketgate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Args is implemented by every method argument shape. Bind pulls each field out
// of p; violations are recorded on p instead of returned.
type Args interface {
	Bind(p *Params)
}

// NoArgs is the argument shape of methods without parameters.
type NoArgs struct{}

func (NoArgs) Bind(*Params) {}

// Params coerces an untyped params object into typed fields and collects
// violations for all of them.
type Params struct {
	fields     map[string]json.RawMessage
	prefix     string
	violations *[]string
}

func NewParams(raw json.RawMessage) (*Params, error) {
	fields := map[string]json.RawMessage{}

	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && !bytes.Equal(raw, nullID) {
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, &ValidationError{Violations: []string{"params: must be an object"}}
		}
	}

	return &Params{fields: fields, violations: new([]string)}, nil
}

// BindParams builds the typed argument shape of a method from raw params.
func BindParams[T any, PT interface {
	*T
	Args
}](raw json.RawMessage) (T, error) {
	var v T

	p, err := NewParams(raw)
	if err != nil {
		return v, err
	}

	PT(&v).Bind(p)

	if err = p.Err(); err != nil {
		return v, err
	}
	return v, nil
}

// Err returns a *ValidationError when any violation was recorded.
func (p *Params) Err() error {
	if len(*p.violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: slices.Clone(*p.violations)}
}

func (p *Params) Violate(name, format string, args ...any) {
	*p.violations = append(*p.violations, p.prefix+name+": "+fmt.Sprintf(format, args...))
}

// lookup returns the raw value of name; null counts as absent.
func (p *Params) lookup(name string) (json.RawMessage, bool) {
	raw, ok := p.fields[name]
	if !ok {
		return nil, false
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, nullID) {
		return nil, false
	}
	return raw, true
}

type StringRule func(v string) string

type IntRule func(v int) string

func NonEmpty(v string) string {
	if strings.TrimSpace(v) == "" {
		return "must not be empty"
	}
	return ""
}

func OneOf(allowed ...string) StringRule {
	return func(v string) string {
		if slices.Contains(allowed, v) {
			return ""
		}
		return fmt.Sprintf("must be one of %s (got %q)", strings.Join(allowed, ", "), v)
	}
}

func Between(minV, maxV int) IntRule {
	return func(v int) string {
		if v < minV || v > maxV {
			return fmt.Sprintf("must be between %d and %d (got %d)", minV, maxV, v)
		}
		return ""
	}
}

func AtLeast(minV int) IntRule {
	return func(v int) string {
		if v < minV {
			return fmt.Sprintf("must be at least %d (got %d)", minV, v)
		}
		return ""
	}
}

// String binds a required string field.
func (p *Params) String(name string, dst *string, rules ...StringRule) {
	raw, ok := p.lookup(name)
	if !ok {
		p.Violate(name, "field required")
		return
	}
	p.bindString(name, raw, dst, rules)
}

// OptionalString leaves dst untouched when the field is absent or null.
func (p *Params) OptionalString(name string, dst *string, rules ...StringRule) {
	raw, ok := p.lookup(name)
	if !ok {
		return
	}
	p.bindString(name, raw, dst, rules)
}

func (p *Params) bindString(name string, raw json.RawMessage, dst *string, rules []StringRule) {
	var v string

	switch raw[0] {
	case '"':
		if err := json.Unmarshal(raw, &v); err != nil {
			p.Violate(name, "invalid string")
			return
		}
	case '{', '[', 't', 'f':
		p.Violate(name, "expected string, got %s", kindOf(raw))
		return
	default:
		// numbers are coerced to their literal text
		v = string(raw)
	}

	for _, rule := range rules {
		if msg := rule(v); msg != "" {
			p.Violate(name, "%s", msg)
			return
		}
	}

	*dst = v
}

// Int binds an optional integer field; dst keeps its default when absent.
func (p *Params) Int(name string, dst *int, rules ...IntRule) {
	raw, ok := p.lookup(name)
	if !ok {
		return
	}

	var (
		v   int
		err error
	)

	switch raw[0] {
	case '"':
		var s string
		if err = json.Unmarshal(raw, &s); err == nil {
			v, err = strconv.Atoi(strings.TrimSpace(s))
		}
	case '{', '[', 't', 'f':
		p.Violate(name, "expected integer, got %s", kindOf(raw))
		return
	default:
		v, err = parseInt(raw)
	}
	if err != nil {
		p.Violate(name, "expected integer, got %s", string(raw))
		return
	}

	for _, rule := range rules {
		if msg := rule(v); msg != "" {
			p.Violate(name, "%s", msg)
			return
		}
	}

	*dst = v
}

func parseInt(raw json.RawMessage) (int, error) {
	n := json.Number(raw)
	if i, err := n.Int64(); err == nil {
		return int(i), nil
	}

	f, err := n.Float64()
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("%s is not an integer", raw)
	}
	return int(f), nil
}

// Bool binds an optional boolean field.
func (p *Params) Bool(name string, dst *bool) {
	raw, ok := p.lookup(name)
	if !ok {
		return
	}

	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		p.Violate(name, "expected boolean, got %s", kindOf(raw))
		return
	}
	*dst = v
}

// Object binds a field that must hold a JSON object.
func (p *Params) Object(name string, dst *map[string]any, required bool) {
	raw, ok := p.lookup(name)
	if !ok {
		if required {
			p.Violate(name, "field required")
		}
		return
	}
	if raw[0] != '{' {
		p.Violate(name, "expected object, got %s", kindOf(raw))
		return
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	v := map[string]any{}
	if err := dec.Decode(&v); err != nil {
		p.Violate(name, "invalid object")
		return
	}
	*dst = v
}

// Nested binds an optional object field with its own shape. Violations are
// reported with a "name." prefix.
func (p *Params) Nested(name string, dst Args) {
	raw, ok := p.lookup(name)
	if !ok {
		return
	}
	if raw[0] != '{' {
		p.Violate(name, "expected object, got %s", kindOf(raw))
		return
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		p.Violate(name, "invalid object")
		return
	}

	dst.Bind(&Params{
		fields:     fields,
		prefix:     p.prefix + name + ".",
		violations: p.violations,
	})
}

func kindOf(raw json.RawMessage) string {
	switch raw[0] {
	case '"':
		return "string"
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
