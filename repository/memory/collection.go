package memory

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tours-service/repository"
)

// uniqueIndex derives the key a document occupies in a unique index. An
// empty key is not indexed.
type uniqueIndex[T any] struct {
	name   string
	fields []string
	key    func(T) string
}

type collection[T any] struct {
	mu      sync.RWMutex
	order   []primitive.ObjectID
	docs    map[primitive.ObjectID]T
	id      func(T) primitive.ObjectID
	indexes []uniqueIndex[T]
}

// clone deep-copies a document through its bson form. Stored documents never
// share slices or pointers with callers, and times are truncated to
// milliseconds as they are in mongo.
func clone[T any](doc T) T {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return doc
	}
	var out T
	if err := bson.Unmarshal(raw, &out); err != nil {
		return doc
	}
	return out
}

func newCollection[T any](id func(T) primitive.ObjectID, indexes ...uniqueIndex[T]) *collection[T] {
	return &collection[T]{docs: map[primitive.ObjectID]T{}, id: id, indexes: indexes}
}

// checkUnique must be called with mu held.
func (c *collection[T]) checkUnique(doc T) error {
	self := c.id(doc)
	for _, idx := range c.indexes {
		key := idx.key(doc)
		if key == "" {
			continue
		}
		for id, other := range c.docs {
			if id != self && idx.key(other) == key {
				return &repository.DuplicateKeyError{Index: idx.name, Fields: idx.fields, Value: key}
			}
		}
	}
	return nil
}

func (c *collection[T]) insert(doc T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkUnique(doc); err != nil {
		return err
	}
	id := c.id(doc)
	if _, exists := c.docs[id]; exists {
		return &repository.DuplicateKeyError{Index: "_id_", Fields: []string{"_id"}, Value: id.Hex()}
	}
	c.docs[id] = clone(doc)
	c.order = append(c.order, id)
	return nil
}

func (c *collection[T]) get(id primitive.ObjectID) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	doc, ok := c.docs[id]
	if !ok {
		return doc, false
	}
	return clone(doc), true
}

func (c *collection[T]) replace(doc T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.id(doc)
	if _, ok := c.docs[id]; !ok {
		return repository.ErrNotFound
	}
	if err := c.checkUnique(doc); err != nil {
		return err
	}
	c.docs[id] = clone(doc)
	return nil
}

// update applies fn to the stored document under the write lock.
func (c *collection[T]) update(id primitive.ObjectID, fn func(*T)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, ok := c.docs[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&doc)
	c.docs[id] = doc
	return nil
}

func (c *collection[T]) remove(id primitive.ObjectID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.docs[id]; !ok {
		return false
	}
	delete(c.docs, id)
	for i, o := range c.order {
		if o == id {
			c.order = append(c.order[:i:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

func (c *collection[T]) removeWhere(pred func(T) bool) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var n int64
	kept := c.order[:0]
	for _, id := range c.order {
		if pred(c.docs[id]) {
			delete(c.docs, id)
			n++
			continue
		}
		kept = append(kept, id)
	}
	c.order = kept
	return n
}

// all returns the documents in insertion order.
func (c *collection[T]) all() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, clone(c.docs[id]))
	}
	return out
}
