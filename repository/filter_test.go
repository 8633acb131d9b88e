package repository

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tours-service/query"
)

func TestFilterMergesOperatorsPerField(t *testing.T) {
	q := &query.Query{Conditions: []query.Condition{
		{Field: "price", Op: query.OpGte, Value: 100.0},
		{Field: "price", Op: query.OpLte, Value: 500.0},
		{Field: "difficulty", Op: query.OpEq, Value: "easy"},
	}}

	assert.Equal(t, bson.M{
		"price":      bson.M{"$gte": 100.0, "$lte": 500.0},
		"difficulty": bson.M{"$eq": "easy"},
	}, Filter(q))
}

func TestFilterKeepsScopeAgainstClientCondition(t *testing.T) {
	scope := primitive.NewObjectID()
	other := primitive.NewObjectID()
	q, err := query.Translate(url.Values{"tour": {other.Hex()}}, query.Options{
		Schema: query.Schema{"tour": query.ObjectID},
	})
	require.NoError(t, err)
	q.Where("tour", scope)

	assert.Equal(t, bson.M{
		"tour": bson.M{"$eq": scope},
		"$and": bson.A{bson.M{"tour": bson.M{"$eq": other}}},
	}, Filter(q))
}

func TestSortKeepsOrder(t *testing.T) {
	got := Sort(query.ParseSort("price,-ratingsAverage"))
	assert.Equal(t, bson.D{{Key: "price", Value: 1}, {Key: "ratingsAverage", Value: -1}}, got)
}

func TestFindOptions(t *testing.T) {
	q := &query.Query{Fields: []string{"name"}, Page: 3, Limit: 5, Sort: query.ParseSort("-price")}
	opts := FindOptions(q, "guides")

	assert.Equal(t, int64(10), *opts.Skip)
	assert.Equal(t, int64(5), *opts.Limit)
	assert.Equal(t, bson.M{"name": 1, "guides": 1}, opts.Projection)

	opts = FindOptions(&query.Query{Exclude: []string{query.VersionKey}}, "guides")
	assert.Equal(t, bson.M{query.VersionKey: 0}, opts.Projection)
}
