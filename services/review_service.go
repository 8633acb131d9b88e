package services

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"tours-service/apperr"
	"tours-service/events"
	"tours-service/metrics"
	"tours-service/models"
	"tours-service/query"
	"tours-service/repository"
)

type ReviewService struct {
	deps
	reviews ReviewStore
	tours   TourStore
	users   UserStore
}

func NewReviewService(reviews ReviewStore, tours TourStore, users UserStore, opts ...Option) *ReviewService {
	return &ReviewService{deps: newDeps(opts), reviews: reviews, tours: tours, users: users}
}

func (s *ReviewService) List(ctx context.Context, q *query.Query) ([]models.ReviewDetails, error) {
	reviews, err := s.reviews.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	return populateReviewers(ctx, s.users, reviews)
}

func (s *ReviewService) Get(ctx context.Context, id string) (*models.ReviewDetails, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	review, err := s.reviews.FindByID(ctx, oid)
	if err != nil {
		return nil, notFound(err, id)
	}
	out, err := populateReviewers(ctx, s.users, []models.Review{*review})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

type CreateReviewInput struct {
	Review string `json:"review"`
	Rating int    `json:"rating"`
	Tour   string `json:"tour"`
}

// Create stores a review by author. tourID comes from the route when the
// review is created under a tour, otherwise from the body.
func (s *ReviewService) Create(ctx context.Context, author *models.User, tourID string, in CreateReviewInput) (*models.Review, error) {
	if tourID == "" {
		tourID = in.Tour
	}
	if tourID == "" {
		return nil, apperr.Validation("Invalid input data. Review must belong to a tour.", "tour")
	}
	oid, err := parseID(tourID)
	if err != nil {
		return nil, err
	}
	if _, err := s.tours.FindByID(ctx, oid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("No tour found with that ID")
		}
		return nil, err
	}

	review := &models.Review{
		Review:    strings.TrimSpace(in.Review),
		Rating:    in.Rating,
		CreatedAt: s.now().UTC(),
		Tour:      oid,
		User:      author.ID,
	}
	if err := models.Validate(review); err != nil {
		return nil, err
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}
	s.recalculate(ctx, oid)
	s.publish(ctx, events.ReviewCreated, map[string]any{
		"reviewId": review.ID.Hex(),
		"tourId":   oid.Hex(),
		"userId":   author.ID.Hex(),
		"rating":   review.Rating,
	})
	return review, nil
}

func (s *ReviewService) Update(ctx context.Context, id string, body []byte) (*models.Review, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	review, err := s.reviews.FindByID(ctx, oid)
	if err != nil {
		return nil, notFound(err, id)
	}
	orig := *review
	if err := decodePatch(body, review); err != nil {
		return nil, err
	}
	review.ID, review.Tour, review.User, review.CreatedAt = orig.ID, orig.Tour, orig.User, orig.CreatedAt
	review.Review = strings.TrimSpace(review.Review)
	if err := models.Validate(review); err != nil {
		return nil, err
	}
	if err := s.reviews.Replace(ctx, review); err != nil {
		return nil, notFound(err, id)
	}
	s.recalculate(ctx, review.Tour)
	return review, nil
}

func (s *ReviewService) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	review, err := s.reviews.FindByID(ctx, oid)
	if err != nil {
		return notFound(err, id)
	}
	if err := s.reviews.Delete(ctx, oid); err != nil {
		return notFound(err, id)
	}
	s.recalculate(ctx, review.Tour)
	s.publish(ctx, events.ReviewDeleted, map[string]any{"reviewId": id, "tourId": review.Tour.Hex()})
	return nil
}

// recalculate refreshes the tour's rating summary from its reviews. The
// review write has already happened, so a failure here is only logged.
func (s *ReviewService) recalculate(ctx context.Context, tourID primitive.ObjectID) {
	stats, err := s.reviews.RatingStats(ctx, tourID)
	if err == nil {
		err = s.tours.SetRatings(ctx, tourID, stats)
	}
	if s.metrics != nil {
		s.metrics.RatingRecalcs.WithLabelValues(metrics.Result(err)).Inc()
	}
	if err != nil {
		s.log.Error("rating recalculation failed", "tour_id", tourID.Hex(), "error", err)
	}
}
