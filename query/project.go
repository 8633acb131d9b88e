package query

import (
	"encoding/json"
)

// Project shapes an outgoing document according to the query's field
// selection. The document is round-tripped through its JSON form so the
// selection uses the same names the client sees.
func Project(doc any, q *Query) (any, error) {
	if q == nil || (len(q.Fields) == 0 && len(q.Exclude) == 0) {
		return doc, nil
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}

	if len(q.Fields) > 0 {
		keep := map[string]bool{"_id": true}
		for _, f := range q.Fields {
			keep[f] = true
		}
		for _, f := range q.Exclude {
			if f == "_id" {
				keep["_id"] = false
			}
		}
		for k := range m {
			if !keep[k] {
				delete(m, k)
			}
		}
		return m, nil
	}

	for _, f := range q.Exclude {
		delete(m, f)
	}
	return m, nil
}

func ProjectAll[T any](docs []T, q *Query) ([]any, error) {
	out := make([]any, 0, len(docs))
	for i := range docs {
		p, err := Project(docs[i], q)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
