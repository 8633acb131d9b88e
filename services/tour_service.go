package services

import (
	"context"
	"strconv"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"tours-service/apperr"
	"tours-service/events"
	"tours-service/geo"
	"tours-service/models"
	"tours-service/query"
)

type TourService struct {
	deps
	tours   TourStore
	reviews ReviewStore
	users   UserStore
}

func NewTourService(tours TourStore, reviews ReviewStore, users UserStore, opts ...Option) *TourService {
	return &TourService{deps: newDeps(opts), tours: tours, reviews: reviews, users: users}
}

func (s *TourService) List(ctx context.Context, q *query.Query) ([]models.TourDetails, error) {
	tours, err := s.tours.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	return populateGuides(ctx, s.users, tours)
}

// Get returns a tour with its guides and reviews expanded.
func (s *TourService) Get(ctx context.Context, id string) (*models.TourDetails, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	tour, err := s.tours.FindByID(ctx, oid)
	if err != nil {
		return nil, notFound(err, id)
	}
	details, err := populateGuides(ctx, s.users, []models.Tour{*tour})
	if err != nil {
		return nil, err
	}

	reviews, err := s.reviews.Find(ctx, (&query.Query{}).Where("tour", oid))
	if err != nil {
		return nil, err
	}
	populated, err := populateReviewers(ctx, s.users, reviews)
	if err != nil {
		return nil, err
	}
	details[0].Reviews = populated
	return &details[0], nil
}

func (s *TourService) Create(ctx context.Context, tour *models.Tour) (*models.Tour, error) {
	tour.ID = primitive.NilObjectID
	tour.CreatedAt = s.now().UTC()
	tour.ApplyDefaults(tour.CreatedAt)
	if err := models.Validate(tour); err != nil {
		return nil, err
	}
	if err := s.tours.Create(ctx, tour); err != nil {
		return nil, err
	}
	return tour, nil
}

func (s *TourService) Update(ctx context.Context, id string, body []byte) (*models.Tour, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	tour, err := s.tours.FindByID(ctx, oid)
	if err != nil {
		return nil, notFound(err, id)
	}
	createdAt := tour.CreatedAt
	if err := decodePatch(body, tour); err != nil {
		return nil, err
	}
	tour.ID = oid
	tour.CreatedAt = createdAt
	tour.ApplyDefaults(createdAt)
	if err := models.Validate(tour); err != nil {
		return nil, err
	}
	if err := s.tours.Replace(ctx, tour); err != nil {
		return nil, notFound(err, id)
	}
	return tour, nil
}

// Delete removes the tour and then its reviews.
func (s *TourService) Delete(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.tours.Delete(ctx, oid); err != nil {
		return notFound(err, id)
	}
	n, err := s.reviews.DeleteByTour(ctx, oid)
	if err != nil {
		return err
	}
	s.log.Info("tour deleted", "tour_id", id, "reviews_deleted", n)
	s.publish(ctx, events.TourDeleted, map[string]any{"tourId": id, "reviewsDeleted": n})
	return nil
}

// Stats aggregates well-rated tours by difficulty. An empty year means all
// tours.
func (s *TourService) Stats(ctx context.Context, year string) ([]models.TourStats, error) {
	y := 0
	if year != "" {
		var err error
		y, err = strconv.Atoi(year)
		if err != nil || y < 1 || y > 9999 {
			return nil, apperr.Validationf("Invalid year: %s", year)
		}
	}
	return s.tours.Stats(ctx, y)
}

func parseCenter(latlng string) (models.GeoPoint, error) {
	lat, lng, err := geo.ParseLatLng(latlng)
	if err != nil {
		return models.GeoPoint{}, apperr.Validation("Please provide latitude and longitude in the format lat,lng.").WithCause(err)
	}
	return models.NewPoint(lng, lat), nil
}

func parseUnit(unit string) (geo.Unit, error) {
	u, err := geo.ParseUnit(unit)
	if err != nil {
		return "", apperr.Validation("Unit must be either mi or km.").WithCause(err)
	}
	return u, nil
}

func (s *TourService) Within(ctx context.Context, distance, latlng, unit string) ([]models.Tour, error) {
	d, err := strconv.ParseFloat(distance, 64)
	if err != nil || d <= 0 {
		return nil, apperr.Validationf("Invalid distance: %s", distance)
	}
	center, err := parseCenter(latlng)
	if err != nil {
		return nil, err
	}
	u, err := parseUnit(unit)
	if err != nil {
		return nil, err
	}
	return s.tours.Within(ctx, center, u.ToMeters(d))
}

func (s *TourService) Distances(ctx context.Context, latlng, unit string) ([]models.TourDistance, error) {
	center, err := parseCenter(latlng)
	if err != nil {
		return nil, err
	}
	u, err := parseUnit(unit)
	if err != nil {
		return nil, err
	}
	return s.tours.Distances(ctx, center, u.Multiplier())
}
