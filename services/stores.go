package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"tours-service/mailer"
	"tours-service/models"
	"tours-service/query"
)

type TourStore interface {
	Create(ctx context.Context, tour *models.Tour) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Tour, error)
	Find(ctx context.Context, q *query.Query) ([]models.Tour, error)
	Replace(ctx context.Context, tour *models.Tour) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	SetRatings(ctx context.Context, id primitive.ObjectID, stats models.RatingStats) error
	Stats(ctx context.Context, year int) ([]models.TourStats, error)
	Within(ctx context.Context, center models.GeoPoint, maxMeters float64) ([]models.Tour, error)
	Distances(ctx context.Context, center models.GeoPoint, multiplier float64) ([]models.TourDistance, error)
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByResetToken(ctx context.Context, hashed string, now time.Time) (*models.User, error)
	Find(ctx context.Context, q *query.Query) ([]models.User, error)
	Replace(ctx context.Context, user *models.User) error
}

type ReviewStore interface {
	Create(ctx context.Context, review *models.Review) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error)
	Find(ctx context.Context, q *query.Query) ([]models.Review, error)
	Replace(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByTour(ctx context.Context, tourID primitive.ObjectID) (int64, error)
	RatingStats(ctx context.Context, tourID primitive.ObjectID) (models.RatingStats, error)
}

type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

type Publisher interface {
	Publish(ctx context.Context, eventType string, data any) error
}
