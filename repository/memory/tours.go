package memory

import (
	"context"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"tours-service/geo"
	"tours-service/models"
	"tours-service/query"
	"tours-service/repository"
)

type TourStore struct {
	c *collection[models.Tour]
}

func NewTourStore() *TourStore {
	return &TourStore{c: newCollection(
		func(t models.Tour) primitive.ObjectID { return t.ID },
		uniqueIndex[models.Tour]{name: "name_1", fields: []string{"name"}, key: func(t models.Tour) string { return t.Name }},
	)}
}

func (s *TourStore) Create(_ context.Context, tour *models.Tour) error {
	if tour.ID.IsZero() {
		tour.ID = primitive.NewObjectID()
	}
	return s.c.insert(*tour)
}

func (s *TourStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Tour, error) {
	t, ok := s.c.get(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (s *TourStore) Find(_ context.Context, q *query.Query) ([]models.Tour, error) {
	return apply(s.c.all(), q, nil), nil
}

func (s *TourStore) Replace(_ context.Context, tour *models.Tour) error {
	return s.c.replace(*tour)
}

func (s *TourStore) Delete(_ context.Context, id primitive.ObjectID) error {
	if !s.c.remove(id) {
		return repository.ErrNotFound
	}
	return nil
}

func (s *TourStore) DeleteAll(_ context.Context) error {
	s.c.removeWhere(func(models.Tour) bool { return true })
	return nil
}

func (s *TourStore) SetRatings(_ context.Context, id primitive.ObjectID, stats models.RatingStats) error {
	return s.c.update(id, func(t *models.Tour) {
		t.RatingsAverage = stats.Average
		t.RatingsQuantity = stats.Quantity
	})
}

func (s *TourStore) Stats(_ context.Context, year int) ([]models.TourStats, error) {
	type acc struct {
		stats    models.TourStats
		sumPrice float64
		sumRate  float64
	}
	groups := map[string]*acc{}
	for _, t := range s.c.all() {
		if t.RatingsAverage < 4.5 || (year != 0 && !startsIn(t, year)) {
			continue
		}
		key := strings.ToUpper(string(t.Difficulty))
		g, ok := groups[key]
		if !ok {
			g = &acc{stats: models.TourStats{Difficulty: key, MinPrice: t.Price, MaxPrice: t.Price}}
			groups[key] = g
		}
		g.stats.NumTours++
		g.stats.NumRatings += t.RatingsQuantity
		g.sumRate += t.RatingsAverage
		g.sumPrice += t.Price
		g.stats.MinPrice = min(g.stats.MinPrice, t.Price)
		g.stats.MaxPrice = max(g.stats.MaxPrice, t.Price)
	}

	out := make([]models.TourStats, 0, len(groups))
	for _, g := range groups {
		n := float64(g.stats.NumTours)
		g.stats.AvgRating = g.sumRate / n
		g.stats.AvgPrice = g.sumPrice / n
		out = append(out, g.stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AvgPrice < out[j].AvgPrice })
	return out, nil
}

func startsIn(t models.Tour, year int) bool {
	for _, d := range t.StartDates {
		if d.UTC().Year() == year {
			return true
		}
	}
	return false
}

func distanceFrom(center models.GeoPoint, t models.Tour) float64 {
	return geo.Haversine(center.Lat(), center.Lng(), t.StartLocation.Lat(), t.StartLocation.Lng())
}

func (s *TourStore) Within(_ context.Context, center models.GeoPoint, maxMeters float64) ([]models.Tour, error) {
	type hit struct {
		tour models.Tour
		dist float64
	}
	var hits []hit
	for _, t := range s.c.all() {
		if len(t.StartLocation.Coordinates) != 2 {
			continue
		}
		if d := distanceFrom(center, t); d <= maxMeters {
			hits = append(hits, hit{t, d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })

	out := make([]models.Tour, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.tour)
	}
	return out, nil
}

func (s *TourStore) Distances(_ context.Context, center models.GeoPoint, multiplier float64) ([]models.TourDistance, error) {
	out := []models.TourDistance{}
	for _, t := range s.c.all() {
		if len(t.StartLocation.Coordinates) != 2 {
			continue
		}
		out = append(out, models.TourDistance{ID: t.ID, Name: t.Name, Distance: distanceFrom(center, t) * multiplier})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out, nil
}

