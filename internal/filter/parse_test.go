package filter

import (
	"errors"
	"net/url"
	"testing"
	"time"
)

func TestParse_EqualityAndOperators(t *testing.T) {
	values := url.Values{
		"status":         {"pending"},
		"deadline[lte]":  {"2024-05-01"},
		"title[gt]":      {"b"},
		"page":           {"2"},
		"limit":          {"5"},
		"sort":           {"-deadline"},
		"assignedTo[in]": {"u1,u2", "u3"},
	}

	e, err := Parse(values)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	and, ok := e.(And)
	if !ok {
		t.Fatalf("expected And, got %T", e)
	}
	if len(and) != 4 {
		t.Fatalf("expected 4 conditions, got %d: %+v", len(and), and)
	}

	// keys are processed in sorted order
	in := and[0].(Condition)
	if in.Field != FieldAssignedTo || in.Op != OpIn {
		t.Fatalf("unexpected first condition: %+v", in)
	}
	if vals := in.Value.([]any); len(vals) != 3 || vals[2] != "u3" {
		t.Fatalf("unexpected in values: %+v", vals)
	}

	deadline := and[1].(Condition)
	want := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	if deadline.Op != OpLte || !deadline.Value.(time.Time).Equal(want) {
		t.Fatalf("unexpected deadline condition: %+v", deadline)
	}

	status := and[2].(Condition)
	if status.Field != FieldStatus || status.Op != OpEq || status.Value != "pending" {
		t.Fatalf("unexpected status condition: %+v", status)
	}
}

func TestParse_SingleConditionIsNotWrapped(t *testing.T) {
	e, err := Parse(url.Values{"status": {"completed"}})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok := e.(Condition); !ok {
		t.Fatalf("expected Condition, got %T", e)
	}
}

func TestParse_EmptyYieldsNil(t *testing.T) {
	e, err := Parse(url.Values{"page": {"1"}})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if e != nil {
		t.Fatalf("expected nil filter, got %+v", e)
	}
}

func TestParse_RepeatedEqualityBecomesIn(t *testing.T) {
	e, err := Parse(url.Values{"status": {"pending", "completed"}})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	c := e.(Condition)
	if c.Op != OpIn || len(c.Value.([]any)) != 2 {
		t.Fatalf("unexpected condition: %+v", c)
	}
}

func TestParse_StringValuesAreNotRewritten(t *testing.T) {
	e, err := Parse(url.Values{"title": {"gt in lte"}})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	c := e.(Condition)
	if c.Op != OpEq || c.Value != "gt in lte" {
		t.Fatalf("value was rewritten: %+v", c)
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		values url.Values
		want   error
	}{
		{"unknown field", url.Values{"password": {"x"}}, ErrUnknownField},
		{"unknown operator", url.Values{"title[regex]": {"x"}}, ErrUnknownOperator},
		{"unterminated operator", url.Values{"title[gt": {"x"}}, ErrUnknownOperator},
		{"bad time", url.Values{"deadline[gt]": {"yesterday"}}, ErrInvalidValue},
		{"bad status", url.Values{"status": {"done"}}, ErrInvalidValue},
		{"empty in", url.Values{"status[in]": {","}}, ErrInvalidValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.values)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			var fe *Error
			if !errors.As(err, &fe) {
				t.Fatalf("expected *Error, got %T", err)
			}
		})
	}
}

func TestParseSort(t *testing.T) {
	keys, err := ParseSort("-deadline, title,+createdAt")
	if err != nil {
		t.Fatalf("ParseSort: %v", err)
	}
	want := []SortKey{
		{Field: FieldDeadline, Desc: true},
		{Field: FieldTitle},
		{Field: FieldCreatedAt},
	}
	if len(keys) != len(want) {
		t.Fatalf("expected %d keys, got %+v", len(want), keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("key %d: expected %+v, got %+v", i, want[i], keys[i])
		}
	}

	if keys, err := ParseSort(""); err != nil || keys != nil {
		t.Fatalf("expected nil keys for empty sort, got %+v, %v", keys, err)
	}
	if _, err := ParseSort("-password"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}
