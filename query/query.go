package query

import (
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"tours-service/apperr"
)

type Operator string

const (
	OpEq  Operator = "eq"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
)

type Condition struct {
	Field string
	Op    Operator
	Value any
}

type SortField struct {
	Field string
	Desc  bool
}

// Query is a backend-neutral description of a filtered, sorted, projected and
// paginated listing.
type Query struct {
	Conditions []Condition
	Sort       []SortField
	Fields     []string
	Exclude    []string
	Page       int
	Limit      int
}

func (q *Query) Skip() int {
	if q.Page < 1 || q.Limit < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// Where ANDs an equality condition in front of the client's filters.
func (q *Query) Where(field string, value any) *Query {
	q.Conditions = append([]Condition{{Field: field, Op: OpEq, Value: value}}, q.Conditions...)
	return q
}

type FieldType int

const (
	String FieldType = iota
	Number
	Date
	Bool
	ObjectID
)

// Schema maps filterable fields to the type their query string values are
// cast to. Fields not listed are compared as strings.
type Schema map[string]FieldType

type Options struct {
	Schema       Schema
	DefaultSort  string
	DefaultLimit int
	MaxLimit     int
	LegacyLTE    bool
}

const (
	DefaultSort  = "-price"
	DefaultLimit = 5
	MaxLimit     = 100
	VersionKey   = "__v"
)

func DefaultOptions(schema Schema) Options {
	return Options{
		Schema:       schema,
		DefaultSort:  DefaultSort,
		DefaultLimit: DefaultLimit,
		MaxLimit:     MaxLimit,
	}
}

var reserved = map[string]bool{"page": true, "sort": true, "limit": true, "fields": true}

var operatorKey = regexp.MustCompile(`^([^\[\]]+)\[([^\[\]]*)\]$`)

// Translate turns query-string parameters into a Query. Repeated keys keep
// their last value.
func Translate(values url.Values, opts Options) (*Query, error) {
	q := &Query{}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if reserved[key] {
			continue
		}
		raw := last(values[key])
		field, op := key, OpEq
		if m := operatorKey.FindStringSubmatch(key); m != nil {
			field = m[1]
			switch Operator(m[2]) {
			case OpGt, OpGte, OpLt:
				op = Operator(m[2])
			case OpLte:
				op = OpLte
				if opts.LegacyLTE {
					op = OpLt
				}
			default:
				return nil, apperr.Validationf("Invalid operator %q for %s", m[2], field)
			}
		}
		value, err := cast(field, raw, opts.Schema[field])
		if err != nil {
			return nil, err
		}
		q.Conditions = append(q.Conditions, Condition{Field: field, Op: op, Value: value})
	}

	sortParam := last(values["sort"])
	if strings.TrimSpace(sortParam) == "" {
		sortParam = opts.DefaultSort
	}
	q.Sort = ParseSort(sortParam)

	for _, f := range splitList(last(values["fields"])) {
		if strings.HasPrefix(f, "-") {
			q.Exclude = append(q.Exclude, strings.TrimPrefix(f, "-"))
		} else {
			q.Fields = append(q.Fields, f)
		}
	}
	if len(q.Fields) == 0 && len(q.Exclude) == 0 {
		q.Exclude = []string{VersionKey}
	}

	q.Page = positiveInt(last(values["page"]), 1)
	q.Limit = positiveInt(last(values["limit"]), opts.DefaultLimit)
	if opts.MaxLimit > 0 && q.Limit > opts.MaxLimit {
		q.Limit = opts.MaxLimit
	}
	return q, nil
}

func ParseSort(raw string) []SortField {
	var out []SortField
	for _, f := range splitList(raw) {
		if strings.HasPrefix(f, "-") {
			out = append(out, SortField{Field: strings.TrimPrefix(f, "-"), Desc: true})
		} else {
			out = append(out, SortField{Field: strings.TrimPrefix(f, "+")})
		}
	}
	return out
}

func cast(field, raw string, typ FieldType) (any, error) {
	switch typ {
	case Number:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, invalid(field, raw)
		}
		return v, nil
	case Date:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"} {
			if v, err := time.Parse(layout, raw); err == nil {
				return v, nil
			}
		}
		return nil, invalid(field, raw)
	case Bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, invalid(field, raw)
		}
		return v, nil
	case ObjectID:
		v, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return nil, invalid(field, raw)
		}
		return v, nil
	default:
		return raw, nil
	}
}

func invalid(field, raw string) error {
	return apperr.Validationf("Invalid %s: %s", field, raw)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func positiveInt(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func last(vs []string) string {
	if len(vs) == 0 {
		return ""
	}
	return vs[len(vs)-1]
}
