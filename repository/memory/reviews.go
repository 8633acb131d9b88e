package memory

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"tours-service/models"
	"tours-service/query"
	"tours-service/repository"
)

type ReviewStore struct {
	c *collection[models.Review]
}

func NewReviewStore() *ReviewStore {
	return &ReviewStore{c: newCollection(
		func(r models.Review) primitive.ObjectID { return r.ID },
		uniqueIndex[models.Review]{
			name:   "user_1_tour_1",
			fields: []string{"user", "tour"},
			key:    func(r models.Review) string { return r.User.Hex() + "/" + r.Tour.Hex() },
		},
	)}
}

func (s *ReviewStore) Create(_ context.Context, review *models.Review) error {
	if review.ID.IsZero() {
		review.ID = primitive.NewObjectID()
	}
	return s.c.insert(*review)
}

func (s *ReviewStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Review, error) {
	r, ok := s.c.get(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (s *ReviewStore) Find(_ context.Context, q *query.Query) ([]models.Review, error) {
	return apply(s.c.all(), q, nil), nil
}

func (s *ReviewStore) Replace(_ context.Context, review *models.Review) error {
	return s.c.replace(*review)
}

func (s *ReviewStore) Delete(_ context.Context, id primitive.ObjectID) error {
	if !s.c.remove(id) {
		return repository.ErrNotFound
	}
	return nil
}

func (s *ReviewStore) DeleteByTour(_ context.Context, tourID primitive.ObjectID) (int64, error) {
	return s.c.removeWhere(func(r models.Review) bool { return r.Tour == tourID }), nil
}

func (s *ReviewStore) DeleteAll(_ context.Context) error {
	s.c.removeWhere(func(models.Review) bool { return true })
	return nil
}

func (s *ReviewStore) RatingStats(_ context.Context, tourID primitive.ObjectID) (models.RatingStats, error) {
	var sum, n int
	for _, r := range s.c.all() {
		if r.Tour == tourID {
			sum += r.Rating
			n++
		}
	}
	if n == 0 {
		return models.RatingStats{Average: models.DefaultRatingsAverage}, nil
	}
	return models.RatingStats{Average: float64(sum) / float64(n), Quantity: n}, nil
}
