package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tours-service/models"
	"tours-service/query"
	"tours-service/repository"
)

func tour(name string, price float64, difficulty models.TourDifficulty, lng, lat float64) *models.Tour {
	t := &models.Tour{
		Name:          name,
		Duration:      5,
		MaxGroupSize:  10,
		Difficulty:    difficulty,
		Price:         price,
		Summary:       "summary",
		ImageCover:    "cover.jpg",
		StartLocation: models.StartLocation{GeoPoint: models.NewPoint(lng, lat)},
	}
	t.ApplyDefaults(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	return t
}

func seedTours(t *testing.T) *TourStore {
	t.Helper()
	s := NewTourStore()
	ctx := context.Background()
	for _, tr := range []*models.Tour{
		tour("The Sea Explorer", 497, models.Medium, -80.18, 25.77),
		tour("The Forest Hiker", 397, models.Easy, -116.21, 51.41),
		tour("The City Wanderer", 1197, models.Easy, -73.96, 40.78),
		tour("The Park Camper", 1497, models.Medium, -118.80, 34.01),
		tour("The Snow Adventurer", 997, models.Difficult, -106.82, 39.19),
	} {
		require.NoError(t, s.Create(ctx, tr))
	}
	return s
}

func TestFindFiltersSortsPaginates(t *testing.T) {
	s := seedTours(t)
	q := &query.Query{
		Conditions: []query.Condition{{Field: "price", Op: query.OpGte, Value: 100.0}},
		Sort:       query.ParseSort("-price"),
		Page:       1,
		Limit:      2,
	}

	got, err := s.Find(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1497.0, got[0].Price)
	assert.Equal(t, 1197.0, got[1].Price)

	q.Page = 3
	got, err = s.Find(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 397.0, got[0].Price)
}

func TestFindSecondarySortAndEquality(t *testing.T) {
	s := seedTours(t)
	q := &query.Query{
		Conditions: []query.Condition{{Field: "difficulty", Op: query.OpEq, Value: "easy"}},
		Sort:       query.ParseSort("price"),
	}

	got, err := s.Find(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "The Forest Hiker", got[0].Name)
}

func TestMatchNestedAndArrays(t *testing.T) {
	id := primitive.NewObjectID()
	doc := toDoc(models.Tour{
		Name:          "x",
		Guides:        []primitive.ObjectID{primitive.NewObjectID(), id},
		StartDates:    []time.Time{time.Date(2021, 6, 19, 9, 0, 0, 0, time.UTC)},
		StartLocation: models.StartLocation{GeoPoint: models.NewPoint(1, 2), Address: "Miami"},
	})

	assert.True(t, matches(doc, []query.Condition{{Field: "guides", Op: query.OpEq, Value: id}}))
	assert.True(t, matches(doc, []query.Condition{{Field: "startLocation.address", Op: query.OpEq, Value: "Miami"}}))
	assert.True(t, matches(doc, []query.Condition{{Field: "startDates", Op: query.OpGte, Value: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)}}))
	assert.False(t, matches(doc, []query.Condition{{Field: "missing", Op: query.OpEq, Value: "x"}}))
	assert.False(t, matches(doc, []query.Condition{{Field: "name", Op: query.OpGt, Value: 3.0}}))
}

func TestUniqueIndexes(t *testing.T) {
	s := seedTours(t)
	err := s.Create(context.Background(), tour("The Forest Hiker", 1, models.Easy, 0, 0))

	var dup *repository.DuplicateKeyError
	require.ErrorAs(t, err, &dup)
	assert.True(t, dup.On("name"))
	assert.Equal(t, "The Forest Hiker", dup.Value)
}

func TestStoredCopiesAreIsolated(t *testing.T) {
	s := seedTours(t)
	all, err := s.Find(context.Background(), nil)
	require.NoError(t, err)

	all[0].Images = append(all[0].Images, "mutated.jpg")
	fresh, err := s.FindByID(context.Background(), all[0].ID)
	require.NoError(t, err)
	assert.Empty(t, fresh.Images)
}

func TestStatsAndGeo(t *testing.T) {
	s := seedTours(t)
	ctx := context.Background()

	stats, err := s.Stats(ctx, 0)
	require.NoError(t, err)
	require.Len(t, stats, 3)
	assert.Equal(t, "EASY", stats[0].Difficulty)
	assert.Equal(t, 2, stats[0].NumTours)
	assert.Equal(t, 797.0, stats[0].AvgPrice)

	la := models.NewPoint(-118.24, 34.05)
	within, err := s.Within(ctx, la, 160934)
	require.NoError(t, err)
	require.Len(t, within, 1)
	assert.Equal(t, "The Park Camper", within[0].Name)

	dists, err := s.Distances(ctx, la, 0.001)
	require.NoError(t, err)
	require.Len(t, dists, 5)
	assert.Equal(t, "The Park Camper", dists[0].Name)
	for i := 1; i < len(dists); i++ {
		assert.LessOrEqual(t, dists[i-1].Distance, dists[i].Distance)
	}
}

func TestUserStoreHidesInactive(t *testing.T) {
	s := NewUserStore()
	ctx := context.Background()
	u := &models.User{Name: "Jonas", Email: "jonas@example.com", Role: models.RoleUser, Active: true}
	require.NoError(t, s.Create(ctx, u))

	u.Active = false
	require.NoError(t, s.Replace(ctx, u))

	_, err := s.FindByID(ctx, u.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.FindByEmail(ctx, "jonas@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	list, err := s.Find(ctx, &query.Query{})
	require.NoError(t, err)
	assert.Empty(t, list)

	stored, ok := s.Stored(u.ID)
	require.True(t, ok)
	assert.False(t, stored.Active)
}

func TestReviewRatingStatsAndCascade(t *testing.T) {
	s := NewReviewStore()
	ctx := context.Background()
	tourID := primitive.NewObjectID()

	stats, err := s.RatingStats(ctx, tourID)
	require.NoError(t, err)
	assert.Equal(t, models.RatingStats{Average: models.DefaultRatingsAverage}, stats)

	for _, rating := range []int{4, 5} {
		require.NoError(t, s.Create(ctx, &models.Review{Review: "ok", Rating: rating, Tour: tourID, User: primitive.NewObjectID()}))
	}
	stats, err = s.RatingStats(ctx, tourID)
	require.NoError(t, err)
	assert.Equal(t, models.RatingStats{Average: 4.5, Quantity: 2}, stats)

	n, err := s.DeleteByTour(ctx, tourID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
