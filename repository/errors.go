package repository

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

var ErrNotFound = errors.New("document not found")

// DuplicateKeyError reports a unique index violation.
type DuplicateKeyError struct {
	Index  string
	Fields []string
	Value  string
	Cause  error
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key on index %s (%s): %s", e.Index, strings.Join(e.Fields, ","), e.Value)
}

func (e *DuplicateKeyError) Unwrap() error { return e.Cause }

// On reports whether the violated index covers exactly the given fields.
func (e *DuplicateKeyError) On(fields ...string) bool {
	if len(fields) != len(e.Fields) {
		return false
	}
	for _, f := range fields {
		found := false
		for _, g := range e.Fields {
			if f == g {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

var (
	dupIndexRe = regexp.MustCompile(`index: (\S+) dup key: \{(.*)\}`)
	dupPairRe  = regexp.MustCompile(`(\w+): ("(?:[^"\\]|\\.)*"|[^,]+)`)
)

// duplicateKey converts a mongo duplicate key failure into a
// DuplicateKeyError. Other errors are returned unchanged.
func duplicateKey(err error) error {
	if err == nil || !mongo.IsDuplicateKeyError(err) {
		return err
	}
	return parseDuplicateKey(err.Error(), err)
}

func parseDuplicateKey(msg string, cause error) *DuplicateKeyError {
	dup := &DuplicateKeyError{Cause: cause}
	m := dupIndexRe.FindStringSubmatch(msg)
	if m == nil {
		return dup
	}
	dup.Index = m[1]
	var values []string
	for _, pair := range dupPairRe.FindAllStringSubmatch(m[2], -1) {
		dup.Fields = append(dup.Fields, pair[1])
		values = append(values, strings.Trim(strings.TrimSpace(pair[2]), `"`))
	}
	dup.Value = strings.Join(values, ", ")
	return dup
}
