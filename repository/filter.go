package repository

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tours-service/query"
)

var mongoOps = map[query.Operator]string{
	query.OpEq:  "$eq",
	query.OpGt:  "$gt",
	query.OpGte: "$gte",
	query.OpLt:  "$lt",
	query.OpLte: "$lte",
}

// Filter builds the mongo filter for the query's conditions. Conditions on
// the same field are merged into one operator document. A condition whose
// operator is already set on that field, such as a client equality against
// a route scope, goes into $and so neither replaces the other.
func Filter(q *query.Query) bson.M {
	filter := bson.M{}
	if q == nil {
		return filter
	}
	var and bson.A
	for _, c := range q.Conditions {
		op := mongoOps[c.Op]
		ops, ok := filter[c.Field].(bson.M)
		if !ok {
			ops = bson.M{}
			filter[c.Field] = ops
		}
		if _, taken := ops[op]; taken {
			and = append(and, bson.M{c.Field: bson.M{op: c.Value}})
			continue
		}
		ops[op] = c.Value
	}
	if len(and) > 0 {
		filter["$and"] = and
	}
	return filter
}

func Sort(fields []query.SortField) bson.D {
	sort := bson.D{}
	for _, f := range fields {
		dir := 1
		if f.Desc {
			dir = -1
		}
		sort = append(sort, bson.E{Key: f.Field, Value: dir})
	}
	return sort
}

func Projection(q *query.Query) bson.M {
	if len(q.Fields) > 0 {
		p := bson.M{}
		for _, f := range q.Fields {
			p[f] = 1
		}
		for _, f := range q.Exclude {
			if f == "_id" {
				p["_id"] = 0
			}
		}
		return p
	}
	if len(q.Exclude) > 0 {
		p := bson.M{}
		for _, f := range q.Exclude {
			p[f] = 0
		}
		return p
	}
	return nil
}

// FindOptions applies sort, projection and pagination. Population needs the
// reference fields so they are always fetched.
func FindOptions(q *query.Query, keep ...string) *options.FindOptions {
	opts := options.Find()
	if q == nil {
		return opts
	}
	if s := Sort(q.Sort); len(s) > 0 {
		opts.SetSort(s)
	}
	if p := Projection(q); p != nil {
		if len(q.Fields) > 0 {
			for _, k := range keep {
				p[k] = 1
			}
		}
		opts.SetProjection(p)
	}
	if q.Limit > 0 {
		opts.SetSkip(int64(q.Skip()))
		opts.SetLimit(int64(q.Limit))
	}
	return opts
}
