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

const TourCollection = "tours"

type TourRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewTourRepository(db *mongo.Database, timeout time.Duration) *TourRepository {
	return &TourRepository{coll: db.Collection(TourCollection), timeout: timeout}
}

func (r *TourRepository) Create(ctx context.Context, tour *models.Tour) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if tour.ID.IsZero() {
		tour.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, tour); err != nil {
		return errors.WithStack(duplicateKey(err))
	}
	return nil
}

func (r *TourRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Tour, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var tour models.Tour
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&tour)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &tour, nil
}

func (r *TourRepository) Find(ctx context.Context, q *query.Query) ([]models.Tour, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.coll.Find(ctx, Filter(q), FindOptions(q, "guides"))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	tours := []models.Tour{}
	if err := cursor.All(ctx, &tours); err != nil {
		return nil, errors.WithStack(err)
	}
	return tours, nil
}

func (r *TourRepository) Replace(ctx context.Context, tour *models.Tour) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": tour.ID}, tour)
	if err != nil {
		return errors.WithStack(duplicateKey(err))
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TourRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
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

func (r *TourRepository) DeleteAll(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.coll.DeleteMany(ctx, bson.M{})
	return errors.WithStack(err)
}

func (r *TourRepository) SetRatings(ctx context.Context, id primitive.ObjectID, stats models.RatingStats) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"ratingsAverage":  stats.Average,
		"ratingsQuantity": stats.Quantity,
	}}
	res, err := r.coll.UpdateByID(ctx, id, update)
	if err != nil {
		return errors.WithStack(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats groups well-rated tours by difficulty. A non-zero year keeps only
// tours with a start date inside that calendar year.
func (r *TourRepository) Stats(ctx context.Context, year int) ([]models.TourStats, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	pipeline := statsPipeline(year)
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	stats := []models.TourStats{}
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, errors.WithStack(err)
	}
	return stats, nil
}

// Within returns tours whose start location lies within maxMeters of center,
// nearest first.
func (r *TourRepository) Within(ctx context.Context, center models.GeoPoint, maxMeters float64) ([]models.Tour, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := withinFilter(center, maxMeters)
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	tours := []models.Tour{}
	if err := cursor.All(ctx, &tours); err != nil {
		return nil, errors.WithStack(err)
	}
	return tours, nil
}

// Distances lists every tour with its distance from center, scaled by
// multiplier, nearest first.
func (r *TourRepository) Distances(ctx context.Context, center models.GeoPoint, multiplier float64) ([]models.TourDistance, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	pipeline := distancesPipeline(center, multiplier)
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	out := []models.TourDistance{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, errors.WithStack(err)
	}
	return out, nil
}
