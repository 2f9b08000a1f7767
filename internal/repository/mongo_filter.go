package repository

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/adanyl0v/go-task-assign/internal/filter"
)

// Task documents use the filter field names as keys.
var mongoOperators = map[filter.Operator]string{
	filter.OpGt:  "$gt",
	filter.OpGte: "$gte",
	filter.OpLt:  "$lt",
	filter.OpLte: "$lte",
	filter.OpIn:  "$in",
}

func mongoFilter(e filter.Expr) (bson.M, error) {
	switch e := e.(type) {
	case nil:
		return bson.M{}, nil
	case filter.And:
		return mongoJoin("$and", e)
	case filter.Or:
		return mongoJoin("$or", e)
	case filter.Condition:
		return mongoCondition(e)
	default:
		return nil, fmt.Errorf("unsupported filter expression %T", e)
	}
}

func mongoJoin(op string, exprs []filter.Expr) (bson.M, error) {
	if len(exprs) == 0 {
		if op == "$or" {
			// matches nothing
			return bson.M{"_id": bson.M{"$in": bson.A{}}}, nil
		}
		return bson.M{}, nil
	}
	parts := make(bson.A, 0, len(exprs))
	for _, e := range exprs {
		m, err := mongoFilter(e)
		if err != nil {
			return nil, err
		}
		parts = append(parts, m)
	}
	return bson.M{op: parts}, nil
}

func mongoCondition(c filter.Condition) (bson.M, error) {
	if _, ok := filter.LookupField(string(c.Field)); !ok {
		return nil, fmt.Errorf("%w: %s", filter.ErrUnknownField, c.Field)
	}
	key := string(c.Field)

	if c.Op == filter.OpEq {
		return bson.M{key: c.Value}, nil
	}
	op, ok := mongoOperators[c.Op]
	if !ok {
		return nil, fmt.Errorf("%w: %s", filter.ErrUnknownOperator, c.Op)
	}
	if c.Op == filter.OpIn {
		vals, _ := c.Value.([]any)
		return bson.M{key: bson.M{op: bson.A(vals)}}, nil
	}
	return bson.M{key: bson.M{op: c.Value}}, nil
}

func mongoSort(keys []filter.SortKey) bson.D {
	sort := make(bson.D, 0, len(keys)+1)
	for _, k := range keys {
		dir := 1
		if k.Desc {
			dir = -1
		}
		sort = append(sort, bson.E{Key: string(k.Field), Value: dir})
	}
	return append(sort, bson.E{Key: "_id", Value: 1})
}
