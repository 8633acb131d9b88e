package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"tours-service/models"
)

func stage(t *testing.T, p mongo.Pipeline, i int) (string, bson.M) {
	t.Helper()
	require.Greater(t, len(p), i)
	require.Len(t, p[i], 1)
	body, ok := p[i][0].Value.(bson.M)
	require.True(t, ok, "stage %s is not a document", p[i][0].Key)
	return p[i][0].Key, body
}

func TestStatsPipeline(t *testing.T) {
	p := statsPipeline(0)
	require.Len(t, p, 3)

	key, match := stage(t, p, 0)
	assert.Equal(t, "$match", key)
	assert.Equal(t, bson.M{"ratingsAverage": bson.M{"$gte": 4.5}}, match)

	key, group := stage(t, p, 1)
	assert.Equal(t, "$group", key)
	assert.Equal(t, bson.M{"$toUpper": "$difficulty"}, group["_id"])
	assert.Equal(t, bson.M{"$sum": 1}, group["numTours"])
	assert.Equal(t, bson.M{"$sum": "$ratingsQuantity"}, group["numRatings"])
	assert.Equal(t, bson.M{"$avg": "$price"}, group["avgPrice"])
	assert.Equal(t, bson.M{"$min": "$price"}, group["minPrice"])
	assert.Equal(t, bson.M{"$max": "$price"}, group["maxPrice"])

	key, sort := stage(t, p, 2)
	assert.Equal(t, "$sort", key)
	assert.Equal(t, bson.M{"avgPrice": 1}, sort)
}

func TestStatsPipelineYear(t *testing.T) {
	_, match := stage(t, statsPipeline(2021), 0)
	assert.Equal(t, bson.M{"$elemMatch": bson.M{
		"$gte": time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		"$lt":  time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
	}}, match["startDates"])
}

func TestWithinFilterEncodesGeoJSON(t *testing.T) {
	f := withinFilter(models.NewPoint(-118.24, 34.05), 160934)

	raw, err := bson.Marshal(f)
	require.NoError(t, err)
	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))

	near := doc["startLocation"].(bson.M)["$near"].(bson.M)
	assert.Equal(t, 160934.0, near["$maxDistance"])
	geometry := near["$geometry"].(bson.M)
	assert.Equal(t, "Point", geometry["type"])
	assert.Equal(t, bson.A{-118.24, 34.05}, geometry["coordinates"])
}

func TestDistancesPipelineStartsWithGeoNear(t *testing.T) {
	center := models.NewPoint(-118.24, 34.05)
	p := distancesPipeline(center, 0.001)
	require.Len(t, p, 2)

	key, geoNear := stage(t, p, 0)
	assert.Equal(t, "$geoNear", key)
	assert.Equal(t, center, geoNear["near"])
	assert.Equal(t, "startLocation", geoNear["key"])
	assert.Equal(t, "distance", geoNear["distanceField"])
	assert.Equal(t, 0.001, geoNear["distanceMultiplier"])
	assert.Equal(t, true, geoNear["spherical"])

	key, project := stage(t, p, 1)
	assert.Equal(t, "$project", key)
	assert.Equal(t, bson.M{"distance": 1, "name": 1}, project)
}

func TestRatingPipeline(t *testing.T) {
	id := primitive.NewObjectID()
	p := ratingPipeline(id)
	require.Len(t, p, 2)

	key, match := stage(t, p, 0)
	assert.Equal(t, "$match", key)
	assert.Equal(t, bson.M{"tour": id}, match)

	key, group := stage(t, p, 1)
	assert.Equal(t, "$group", key)
	assert.Equal(t, bson.M{
		"_id":       "$tour",
		"nRating":   bson.M{"$sum": 1},
		"avgRating": bson.M{"$avg": "$rating"},
	}, group)
}
