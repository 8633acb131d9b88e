package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"tours-service/models"
	"tours-service/query"
)

const ReviewCollection = "reviews"

type ReviewRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewReviewRepository(db *mongo.Database, timeout time.Duration) *ReviewRepository {
	return &ReviewRepository{coll: db.Collection(ReviewCollection), timeout: timeout}
}

func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if review.ID.IsZero() {
		review.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, review); err != nil {
		return errors.WithStack(duplicateKey(err))
	}
	return nil
}

func (r *ReviewRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var review models.Review
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&review)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &review, nil
}

func (r *ReviewRepository) Find(ctx context.Context, q *query.Query) ([]models.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.coll.Find(ctx, Filter(q), FindOptions(q, "user"))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	reviews := []models.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, errors.WithStack(err)
	}
	return reviews, nil
}

func (r *ReviewRepository) Replace(ctx context.Context, review *models.Review) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": review.ID}, review)
	if err != nil {
		return errors.WithStack(duplicateKey(err))
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.WithStack(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ReviewRepository) DeleteByTour(ctx context.Context, tourID primitive.ObjectID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.M{"tour": tourID})
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return res.DeletedCount, nil
}

func (r *ReviewRepository) DeleteAll(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.coll.DeleteMany(ctx, bson.M{})
	return errors.WithStack(err)
}

// RatingStats averages the ratings of a tour's reviews. A tour without
// reviews gets the default rating and a zero count.
func (r *ReviewRepository) RatingStats(ctx context.Context, tourID primitive.ObjectID) (models.RatingStats, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	pipeline := ratingPipeline(tourID)
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return models.RatingStats{}, errors.WithStack(err)
	}
	var rows []struct {
		NRating   int     `bson:"nRating"`
		AvgRating float64 `bson:"avgRating"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return models.RatingStats{}, errors.WithStack(err)
	}
	if len(rows) == 0 {
		return models.RatingStats{Average: models.DefaultRatingsAverage}, nil
	}
	return models.RatingStats{Average: rows[0].AvgRating, Quantity: rows[0].NRating}, nil
}
