package services

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tours-service/apperr"
	"tours-service/models"
	"tours-service/query"
)

func TestCreateTourDefaultsAndValidation(t *testing.T) {
	e := newEnv(t)
	tour := e.createTour(t, "The Forest Hiker", 397)

	assert.False(t, tour.ID.IsZero())
	assert.Equal(t, "the-forest-hiker", tour.Slug)
	assert.Equal(t, models.DefaultRatingsAverage, tour.RatingsAverage)
	assert.Equal(t, models.PointType, tour.StartLocation.Type)

	discount := 500.0
	_, err := e.tourSvc.Create(context.Background(), &models.Tour{
		Name: "The Sea Explorer", Duration: 7, MaxGroupSize: 15, Difficulty: models.Medium,
		Price: 497, PriceDiscount: &discount, Summary: "s", ImageCover: "c.jpg",
		StartLocation: models.StartLocation{GeoPoint: models.NewPoint(-80.18, 25.77)},
	})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "priceDiscount", verrs[0].Field())
}

func TestGetTourPopulatesGuidesAndReviews(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	guide, err := e.auth.CreateUser(ctx, SignupInput{Name: "Lead", Email: "lead@example.com", Password: "pass1234", PasswordConfirm: "pass1234"}, models.RoleLeadGuide)
	require.NoError(t, err)

	tour := e.createTour(t, "The Forest Hiker", 397)
	_, err = e.tourSvc.Update(ctx, tour.ID.Hex(), []byte(`{"guides":["`+guide.ID.Hex()+`"]}`))
	require.NoError(t, err)

	reviewer := e.signup(t, "Reviewer", "rev@example.com")
	_, err = e.revSvc.Create(ctx, reviewer.User, tour.ID.Hex(), CreateReviewInput{Review: "Great", Rating: 5})
	require.NoError(t, err)

	details, err := e.tourSvc.Get(ctx, tour.ID.Hex())
	require.NoError(t, err)
	require.Len(t, details.Guides, 1)
	assert.Equal(t, "Lead", details.Guides[0].Name)
	assert.Equal(t, models.RoleLeadGuide, details.Guides[0].Role)
	require.Len(t, details.Reviews, 1)
	assert.Equal(t, "Reviewer", details.Reviews[0].User.Name)
	assert.Empty(t, details.Reviews[0].User.Email)
}

func TestGetTourErrors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.tourSvc.Get(ctx, "not-an-id")
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, "Invalid _id: not-an-id", ae.Message)

	missing := primitive.NewObjectID().Hex()
	_, err = e.tourSvc.Get(ctx, missing)
	ae, ok = apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindNotFound, ae.Kind)
	assert.Equal(t, "No document found with "+missing+" ID", ae.Message)
}

func TestUpdateTourKeepsIdentity(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tour := e.createTour(t, "The Forest Hiker", 397)

	updated, err := e.tourSvc.Update(ctx, tour.ID.Hex(), []byte(`{"_id":"`+primitive.NewObjectID().Hex()+`","price":450,"name":"The Forest Walker"}`))
	require.NoError(t, err)
	assert.Equal(t, tour.ID, updated.ID)
	assert.Equal(t, 450.0, updated.Price)
	assert.Equal(t, "the-forest-walker", updated.Slug)

	_, err = e.tourSvc.Update(ctx, tour.ID.Hex(), []byte(`{"difficulty":"extreme"}`))
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)

	_, err = e.tourSvc.Update(ctx, tour.ID.Hex(), nil)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestDeleteTourCascadesReviews(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tour := e.createTour(t, "The Forest Hiker", 397)
	for _, name := range []string{"A user", "B user"} {
		s := e.signup(t, name, name[:1]+"@example.com")
		_, err := e.revSvc.Create(ctx, s.User, tour.ID.Hex(), CreateReviewInput{Review: "Nice", Rating: 4})
		require.NoError(t, err)
	}

	require.NoError(t, e.tourSvc.Delete(ctx, tour.ID.Hex()))

	reviews, err := e.revSvc.List(ctx, (&query.Query{}).Where("tour", tour.ID))
	require.NoError(t, err)
	assert.Empty(t, reviews)
	assert.Contains(t, e.events.events, "tour.deleted")

	assert.True(t, apperr.IsKind(e.tourSvc.Delete(ctx, tour.ID.Hex()), apperr.KindNotFound))
}

func TestStatsYear(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tour := e.createTour(t, "The Forest Hiker", 397)
	_, err := e.tourSvc.Update(ctx, tour.ID.Hex(), []byte(`{"startDates":["2021-04-25T09:00:00Z"]}`))
	require.NoError(t, err)
	e.createTour(t, "The Sea Explorer", 497)

	all, err := e.tourSvc.Stats(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 2, all[0].NumTours)

	in2021, err := e.tourSvc.Stats(ctx, "2021")
	require.NoError(t, err)
	require.Len(t, in2021, 1)
	assert.Equal(t, 1, in2021[0].NumTours)

	_, err = e.tourSvc.Stats(ctx, "twenty")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestWithinAndDistances(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.createTour(t, "The Park Camper", 1497)
	far, err := e.tourSvc.Create(ctx, &models.Tour{
		Name: "The Snow Adventurer", Duration: 4, MaxGroupSize: 10, Difficulty: models.Difficult,
		Price: 997, Summary: "s", ImageCover: "c.jpg",
		StartLocation: models.StartLocation{GeoPoint: models.NewPoint(-106.82, 39.19)},
	})
	require.NoError(t, err)

	within, err := e.tourSvc.Within(ctx, "100", "34.05,-118.24", "mi")
	require.NoError(t, err)
	require.Len(t, within, 1)
	assert.Equal(t, "The Park Camper", within[0].Name)

	dists, err := e.tourSvc.Distances(ctx, "34.05,-118.24", "km")
	require.NoError(t, err)
	require.Len(t, dists, 2)
	assert.Equal(t, far.ID, dists[1].ID)
	assert.InDelta(t, 1168, dists[1].Distance, 5)

	_, err = e.tourSvc.Within(ctx, "100", "34.05,-118.24", "ft")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	_, err = e.tourSvc.Within(ctx, "100", "34.05", "mi")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	_, err = e.tourSvc.Within(ctx, "-1", "34.05,-118.24", "mi")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

