package filter

import (
	"net/url"
	"sort"
	"strings"
)

var reservedParams = map[string]struct{}{
	"page":  {},
	"limit": {},
	"sort":  {},
}

// Parse builds a filter from query parameters of the form
// field=value, field[op]=value and field[in]=a,b. Pagination and sort
// parameters are skipped. Every field and operator is checked against the
// whitelist; nothing unrecognized reaches a storage backend.
func Parse(values url.Values) (Expr, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		if _, ok := reservedParams[k]; ok {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var conds And
	for _, key := range keys {
		name, opName, err := splitParam(key)
		if err != nil {
			return nil, err
		}

		field, ok := LookupField(name)
		if !ok {
			return nil, &Error{Param: key, Err: ErrUnknownField}
		}
		op, ok := lookupOperator(opName)
		if !ok {
			return nil, &Error{Param: key, Err: ErrUnknownOperator}
		}

		raws := values[key]
		if op == OpIn {
			var split []string
			for _, r := range raws {
				split = append(split, strings.Split(r, ",")...)
			}
			raws = split
		} else if op == OpEq && len(raws) > 1 {
			op = OpIn
		}

		cond, err := newCondition(key, field, op, raws)
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond)
	}
	return Conjoin(conds...), nil
}

func newCondition(key string, field Field, op Operator, raws []string) (Condition, error) {
	if op == OpIn {
		vals := make([]any, 0, len(raws))
		for _, r := range raws {
			r = strings.TrimSpace(r)
			if r == "" {
				continue
			}
			v, err := parseValue(field, r)
			if err != nil {
				return Condition{}, &Error{Param: key, Err: err}
			}
			vals = append(vals, v)
		}
		if len(vals) == 0 {
			return Condition{}, &Error{Param: key, Err: ErrInvalidValue}
		}
		return Condition{Field: field, Op: op, Value: vals}, nil
	}

	if len(raws) == 0 {
		return Condition{}, &Error{Param: key, Err: ErrInvalidValue}
	}
	v, err := parseValue(field, raws[0])
	if err != nil {
		return Condition{}, &Error{Param: key, Err: err}
	}
	return Condition{Field: field, Op: op, Value: v}, nil
}

func splitParam(key string) (string, string, error) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return key, string(OpEq), nil
	}
	if !strings.HasSuffix(key, "]") || open == 0 {
		return "", "", &Error{Param: key, Err: ErrUnknownOperator}
	}
	return key[:open], key[open+1 : len(key)-1], nil
}

// ParseSort parses a comma separated list of fields, each optionally
// prefixed with '-' for descending order, e.g. "-deadline,title".
// An empty string yields nil.
func ParseSort(raw string) ([]SortKey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var keys []SortKey
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		desc := false
		switch part[0] {
		case '-':
			desc = true
			part = part[1:]
		case '+':
			part = part[1:]
		}
		field, ok := LookupField(part)
		if !ok {
			return nil, &Error{Param: "sort", Err: ErrUnknownField}
		}
		keys = append(keys, SortKey{Field: field, Desc: desc})
	}
	return keys, nil
}
