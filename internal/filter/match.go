package filter

import (
	"strings"
	"time"
)

// Match evaluates e against a record whose field values are returned by
// get. A nil expression matches everything.
func Match(e Expr, get func(Field) any) bool {
	switch e := e.(type) {
	case nil:
		return true
	case And:
		for _, sub := range e {
			if !Match(sub, get) {
				return false
			}
		}
		return true
	case Or:
		for _, sub := range e {
			if Match(sub, get) {
				return true
			}
		}
		return false
	case Condition:
		return matchCondition(e, get(e.Field))
	default:
		return false
	}
}

func matchCondition(c Condition, actual any) bool {
	if c.Op == OpIn {
		vals, _ := c.Value.([]any)
		for _, v := range vals {
			if cmp, ok := Compare(actual, v); ok && cmp == 0 {
				return true
			}
		}
		return false
	}

	cmp, ok := Compare(actual, c.Value)
	if !ok {
		return false
	}
	switch c.Op {
	case OpEq:
		return cmp == 0
	case OpGt:
		return cmp > 0
	case OpGte:
		return cmp >= 0
	case OpLt:
		return cmp < 0
	case OpLte:
		return cmp <= 0
	default:
		return false
	}
}

// Compare orders two values of the same type. The second result is false
// when the values are not comparable.
func Compare(a, b any) (int, bool) {
	switch a := a.(type) {
	case string:
		b, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(a, b), true
	case time.Time:
		b, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return a.Compare(b), true
	default:
		return 0, false
	}
}
