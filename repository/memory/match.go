package memory

import (
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tours-service/query"
)

// toDoc converts a model into its stored bson shape so conditions use the
// same field names as the mongo backend.
func toDoc(v any) bson.M {
	raw, err := bson.Marshal(v)
	if err != nil {
		return bson.M{}
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return bson.M{}
	}
	return doc
}

func lookup(doc bson.M, path string) (any, bool) {
	var cur any = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(bson.M)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func matches(doc bson.M, conds []query.Condition) bool {
	for _, c := range conds {
		if !matchCondition(doc, c) {
			return false
		}
	}
	return true
}

func matchCondition(doc bson.M, c query.Condition) bool {
	v, ok := lookup(doc, c.Field)
	if !ok {
		return false
	}
	if arr, isArr := v.(bson.A); isArr {
		for _, el := range arr {
			if compareOp(el, c.Op, c.Value) {
				return true
			}
		}
		return false
	}
	return compareOp(v, c.Op, c.Value)
}

func compareOp(stored any, op query.Operator, want any) bool {
	cmp, ok := compare(stored, want)
	if !ok {
		return false
	}
	switch op {
	case query.OpEq:
		return cmp == 0
	case query.OpGt:
		return cmp > 0
	case query.OpGte:
		return cmp >= 0
	case query.OpLt:
		return cmp < 0
	case query.OpLte:
		return cmp <= 0
	}
	return false
}

// compare orders two values of compatible types. Mismatched types never
// compare, matching mongo's type bracketing for query operators.
func compare(a, b any) (int, bool) {
	a, b = normalize(a), normalize(b)
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		if !ok {
			return 0, false
		}
		return cmpOrdered(x, y), true
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case time.Time:
		y, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	case bool:
		y, ok := b.(bool)
		if !ok || x == y {
			return 0, ok
		}
		if !x {
			return -1, true
		}
		return 1, true
	case primitive.ObjectID:
		y, ok := b.(primitive.ObjectID)
		if !ok {
			return 0, false
		}
		return strings.Compare(x.Hex(), y.Hex()), true
	}
	return 0, false
}

func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case float32:
		return float64(x)
	case primitive.DateTime:
		return x.Time().UTC()
	case time.Time:
		return x.UTC()
	}
	return v
}

func cmpOrdered(x, y float64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

// sortDocs orders docs by the sort fields. Missing values sort first, the
// way mongo orders null before other types.
func sortDocs[T any](items []T, docs []bson.M, fields []query.SortField) {
	if len(fields) == 0 {
		return
	}
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		a, b := docs[idx[i]], docs[idx[j]]
		for _, f := range fields {
			av, aok := lookup(a, f.Field)
			bv, bok := lookup(b, f.Field)
			var c int
			switch {
			case !aok && !bok:
				c = 0
			case !aok:
				c = -1
			case !bok:
				c = 1
			default:
				c, _ = compare(av, bv)
			}
			if c == 0 {
				continue
			}
			if f.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	sortedItems := make([]T, len(items))
	sortedDocs := make([]bson.M, len(docs))
	for i, k := range idx {
		sortedItems[i] = items[k]
		sortedDocs[i] = docs[k]
	}
	copy(items, sortedItems)
	copy(docs, sortedDocs)
}

// apply filters, sorts and paginates items in insertion order.
func apply[T any](items []T, q *query.Query, scope func(T) bool) []T {
	var kept []T
	var docs []bson.M
	for _, it := range items {
		if scope != nil && !scope(it) {
			continue
		}
		doc := toDoc(it)
		if q != nil && !matches(doc, q.Conditions) {
			continue
		}
		kept = append(kept, it)
		docs = append(docs, doc)
	}
	if q == nil {
		return nonNil(kept)
	}
	sortDocs(kept, docs, q.Sort)

	if q.Limit > 0 {
		skip := q.Skip()
		if skip >= len(kept) {
			return []T{}
		}
		end := skip + q.Limit
		if end > len(kept) {
			end = len(kept)
		}
		kept = kept[skip:end]
	}
	return nonNil(kept)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
