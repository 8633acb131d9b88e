package repository

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDuplicateKeySingleField(t *testing.T) {
	msg := `E11000 duplicate key error collection: natours.tours index: name_1 dup key: { name: "The Forest Hiker" }`
	dup := parseDuplicateKey(msg, errors.New(msg))

	assert.Equal(t, "name_1", dup.Index)
	assert.Equal(t, []string{"name"}, dup.Fields)
	assert.Equal(t, "The Forest Hiker", dup.Value)
	assert.True(t, dup.On("name"))
	assert.False(t, dup.On("email"))
}

func TestParseDuplicateKeyCompound(t *testing.T) {
	msg := `E11000 duplicate key error collection: natours.reviews index: user_1_tour_1 dup key: { user: ObjectId('5c8a1d5b0190b214360dc057'), tour: ObjectId('5c88fa8cf4afda39709c2955') }`
	dup := parseDuplicateKey(msg, nil)

	assert.Equal(t, "user_1_tour_1", dup.Index)
	assert.Equal(t, []string{"user", "tour"}, dup.Fields)
	assert.True(t, dup.On("tour", "user"))
}

func TestDuplicateKeyPassesOtherErrors(t *testing.T) {
	err := errors.New("connection reset")
	assert.Same(t, err, duplicateKey(err))
	assert.NoError(t, duplicateKey(nil))
}
