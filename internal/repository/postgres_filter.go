package repository

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/adanyl0v/go-task-assign/internal/filter"
)

var taskColumns = map[filter.Field]string{
	filter.FieldTitle:       "title",
	filter.FieldDescription: "description",
	filter.FieldStatus:      "status",
	filter.FieldDeadline:    "deadline",
	filter.FieldAssignedTo:  "assigned_to",
	filter.FieldCreatedBy:   "created_by",
	filter.FieldCreatedAt:   "created_at",
	filter.FieldUpdatedAt:   "updated_at",
}

var sqlOperators = map[filter.Operator]string{
	filter.OpEq:  "=",
	filter.OpGt:  ">",
	filter.OpGte: ">=",
	filter.OpLt:  "<",
	filter.OpLte: "<=",
}

// sqlBuilder renders a filter as a WHERE clause with numbered
// placeholders. Values never end up in the SQL text.
type sqlBuilder struct {
	args []any
}

func (b *sqlBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

func (b *sqlBuilder) where(e filter.Expr) (string, error) {
	switch e := e.(type) {
	case nil:
		return "TRUE", nil
	case filter.And:
		return b.join(e, " AND ", "TRUE")
	case filter.Or:
		return b.join(e, " OR ", "FALSE")
	case filter.Condition:
		return b.condition(e)
	default:
		return "", fmt.Errorf("unsupported filter expression %T", e)
	}
}

func (b *sqlBuilder) join(exprs []filter.Expr, sep, empty string) (string, error) {
	if len(exprs) == 0 {
		return empty, nil
	}
	parts := make([]string, 0, len(exprs))
	for _, e := range exprs {
		s, err := b.where(e)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

func (b *sqlBuilder) condition(c filter.Condition) (string, error) {
	col, ok := taskColumns[c.Field]
	if !ok {
		return "", fmt.Errorf("%w: %s", filter.ErrUnknownField, c.Field)
	}

	if c.Op == filter.OpIn {
		vals, ok := c.Value.([]any)
		if !ok || len(vals) == 0 {
			return "FALSE", nil
		}
		placeholders := make([]string, len(vals))
		for i, v := range vals {
			placeholders[i] = b.arg(v)
		}
		return col + " IN (" + strings.Join(placeholders, ", ") + ")", nil
	}

	op, ok := sqlOperators[c.Op]
	if !ok {
		return "", fmt.Errorf("%w: %s", filter.ErrUnknownOperator, c.Op)
	}
	return col + " " + op + " " + b.arg(c.Value), nil
}

func orderBy(keys []filter.SortKey) (string, error) {
	parts := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		col, ok := taskColumns[k.Field]
		if !ok {
			return "", fmt.Errorf("%w: %s", filter.ErrUnknownField, k.Field)
		}
		dir := "ASC"
		if k.Desc {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
	}
	parts = append(parts, "id ASC")
	return strings.Join(parts, ", "), nil
}
