// Package filter implements the typed task filter: a small tree of
// conditions over a whitelisted set of task fields. Storage backends
// translate it into their native query syntax.
package filter

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownField    = errors.New("unknown filter field")
	ErrUnknownOperator = errors.New("unknown filter operator")
	ErrInvalidValue    = errors.New("invalid filter value")
)

// Error describes which query parameter could not be turned into a filter.
type Error struct {
	Param string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Param)
}

func (e *Error) Unwrap() error { return e.Err }

type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldStatus      Field = "status"
	FieldDeadline    Field = "deadline"
	FieldAssignedTo  Field = "assignedTo"
	FieldCreatedBy   Field = "createdBy"
	FieldCreatedAt   Field = "createdAt"
	FieldUpdatedAt   Field = "updatedAt"
)

type kind int

const (
	kindString kind = iota
	kindStatus
	kindID
	kindTime
)

var fieldKinds = map[Field]kind{
	FieldTitle:       kindString,
	FieldDescription: kindString,
	FieldStatus:      kindStatus,
	FieldDeadline:    kindTime,
	FieldAssignedTo:  kindID,
	FieldCreatedBy:   kindID,
	FieldCreatedAt:   kindTime,
	FieldUpdatedAt:   kindTime,
}

// LookupField reports whether name is a filterable task field.
func LookupField(name string) (Field, bool) {
	f := Field(name)
	_, ok := fieldKinds[f]
	return f, ok
}

type Operator string

const (
	OpEq  Operator = "eq"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
	OpIn  Operator = "in"
)

func lookupOperator(name string) (Operator, bool) {
	switch op := Operator(name); op {
	case OpEq, OpGt, OpGte, OpLt, OpLte, OpIn:
		return op, true
	default:
		return "", false
	}
}

// Expr is one of Condition, And or Or.
type Expr interface {
	expr()
}

// Condition compares a field against a value. Value holds a string or a
// time.Time; for OpIn it holds a []any of those.
type Condition struct {
	Field Field
	Op    Operator
	Value any
}

type And []Expr

type Or []Expr

func (Condition) expr() {}
func (And) expr()       {}
func (Or) expr()        {}

func Eq(field Field, value any) Condition {
	return Condition{Field: field, Op: OpEq, Value: value}
}

// Conjoin joins the non-nil expressions with And. It returns nil when
// nothing is left and the expression itself when only one is.
func Conjoin(exprs ...Expr) Expr {
	var out And
	for _, e := range exprs {
		if e == nil {
			continue
		}
		if a, ok := e.(And); ok && len(a) == 0 {
			continue
		}
		out = append(out, e)
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	default:
		return out
	}
}

type SortKey struct {
	Field Field
	Desc  bool
}

// DefaultSort orders newest tasks first.
var DefaultSort = []SortKey{{Field: FieldCreatedAt, Desc: true}}

func parseValue(f Field, raw string) (any, error) {
	switch fieldKinds[f] {
	case kindTime:
		for _, layout := range []string{time.RFC3339Nano, time.DateTime, time.DateOnly} {
			t, err := time.Parse(layout, raw)
			if err == nil {
				return t.UTC(), nil
			}
		}
		return nil, ErrInvalidValue
	case kindStatus:
		switch raw {
		case "pending", "in-progress", "completed":
			return raw, nil
		}
		return nil, ErrInvalidValue
	case kindID:
		if raw == "" {
			return nil, ErrInvalidValue
		}
		return raw, nil
	default:
		return raw, nil
	}
}
