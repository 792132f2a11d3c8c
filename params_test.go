package ticketgate_test

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/tulinowpavel/ticketgate"
)

type filterArgs struct {
	Status string
	Limit  int
	Offset int
}

func (a *filterArgs) Bind(p *ticketgate.Params) {
	a.Limit = 50
	p.OptionalString("status", &a.Status)
	p.Int("limit", &a.Limit, ticketgate.Between(1, 500))
	p.Int("offset", &a.Offset, ticketgate.AtLeast(0))
}

type reportArgs struct {
	ReportType string
	Title      string
	Extended   bool
	Fields     map[string]any
	Filters    filterArgs
}

func (a *reportArgs) Bind(p *ticketgate.Params) {
	p.String("report_type", &a.ReportType, ticketgate.NonEmpty)
	p.OptionalString("title", &a.Title)
	p.Bool("extended", &a.Extended)
	p.Object("fields", &a.Fields, false)
	a.Filters.Limit = 50
	p.Nested("filters", &a.Filters)
}

func TestParams__DefaultsAndCoercion(t *testing.T) {
	args, err := ticketgate.BindParams[reportArgs](json.RawMessage(
		`{"report_type": "csv", "title": 42, "filters": {"limit": "20", "offset": 2.0, "status": null}}`,
	))
	if err != nil {
		t.Fatalf("unexpected bind error: %v", err)
	}

	refArgs := reportArgs{
		ReportType: "csv",
		Title:      "42",
		Filters:    filterArgs{Limit: 20, Offset: 2},
	}

	if !reflect.DeepEqual(args, refArgs) {
		t.Fatalf("args not equals to reference: reference=%#v actual=%#v", refArgs, args)
	}
}

func TestParams__MustCollectAllViolations(t *testing.T) {
	_, err := ticketgate.BindParams[reportArgs](json.RawMessage(
		`{"report_type": "", "extended": "yes", "fields": [1], "filters": {"limit": 0, "offset": -1}}`,
	))

	var validationErr *ticketgate.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}

	refViolations := []string{
		"report_type: must not be empty",
		"extended: expected boolean, got string",
		"fields: expected object, got array",
		"filters.limit: must be between 1 and 500 (got 0)",
		"filters.offset: must be at least 0 (got -1)",
	}

	if !reflect.DeepEqual(validationErr.Violations, refViolations) {
		t.Fatalf("violations not equals to reference: reference=%#v actual=%#v", refViolations, validationErr.Violations)
	}
}

func TestParams__MissingRequiredField(t *testing.T) {
	for _, raw := range []string{`{}`, ``, `null`, `{"report_type": null}`} {
		_, err := ticketgate.BindParams[reportArgs](json.RawMessage(raw))

		var validationErr *ticketgate.ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("params %q: expected validation error, got %v", raw, err)
		}
		if !reflect.DeepEqual(validationErr.Violations, []string{"report_type: field required"}) {
			t.Fatalf("params %q: unexpected violations %#v", raw, validationErr.Violations)
		}
	}
}

func TestParams__RejectNonObject(t *testing.T) {
	_, err := ticketgate.BindParams[reportArgs](json.RawMessage(`[1, 2]`))

	var validationErr *ticketgate.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParams__RejectFractionalInteger(t *testing.T) {
	_, err := ticketgate.BindParams[filterArgs](json.RawMessage(`{"limit": 2.5}`))

	var validationErr *ticketgate.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !reflect.DeepEqual(validationErr.Violations, []string{"limit: expected integer, got 2.5"}) {
		t.Fatalf("unexpected violations %#v", validationErr.Violations)
	}
}
