package repository

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"tours-service/models"
)

func statsPipeline(year int) mongo.Pipeline {
	match := bson.M{"ratingsAverage": bson.M{"$gte": 4.5}}
	if year != 0 {
		from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		match["startDates"] = bson.M{"$elemMatch": bson.M{"$gte": from, "$lt": from.AddDate(1, 0, 0)}}
	}
	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":        bson.M{"$toUpper": "$difficulty"},
			"numTours":   bson.M{"$sum": 1},
			"numRatings": bson.M{"$sum": "$ratingsQuantity"},
			"avgRating":  bson.M{"$avg": "$ratingsAverage"},
			"avgPrice":   bson.M{"$avg": "$price"},
			"minPrice":   bson.M{"$min": "$price"},
			"maxPrice":   bson.M{"$max": "$price"},
		}}},
		{{Key: "$sort", Value: bson.M{"avgPrice": 1}}},
	}
}

// withinFilter needs the 2dsphere index on startLocation.
func withinFilter(center models.GeoPoint, maxMeters float64) bson.M {
	return bson.M{"startLocation": bson.M{"$near": bson.M{
		"$geometry":    center,
		"$maxDistance": maxMeters,
	}}}
}

// distancesPipeline must start with $geoNear.
func distancesPipeline(center models.GeoPoint, multiplier float64) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$geoNear", Value: bson.M{
			"near":               center,
			"key":                "startLocation",
			"distanceField":      "distance",
			"distanceMultiplier": multiplier,
			"spherical":          true,
		}}},
		{{Key: "$project", Value: bson.M{"distance": 1, "name": 1}}},
	}
}

func ratingPipeline(tourID primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"tour": tourID}}},
		{{Key: "$group", Value: bson.M{
			"_id":       "$tour",
			"nRating":   bson.M{"$sum": 1},
			"avgRating": bson.M{"$avg": "$rating"},
		}}},
	}
}
