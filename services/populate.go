package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"tours-service/models"
)

// userSummaries loads the active users among ids in one query.
func userSummaries(ctx context.Context, users UserStore, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.UserSummary, error) {
	seen := map[primitive.ObjectID]bool{}
	var unique []primitive.ObjectID
	for _, id := range ids {
		if !id.IsZero() && !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	out := make(map[primitive.ObjectID]*models.UserSummary, len(unique))
	if len(unique) == 0 {
		return out, nil
	}
	found, err := users.FindByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	for i := range found {
		out[found[i].ID] = found[i].Summary()
	}
	return out, nil
}

func populateGuides(ctx context.Context, users UserStore, tours []models.Tour) ([]models.TourDetails, error) {
	var ids []primitive.ObjectID
	for _, t := range tours {
		ids = append(ids, t.Guides...)
	}
	byID, err := userSummaries(ctx, users, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.TourDetails, 0, len(tours))
	for i := range tours {
		guides := []models.UserSummary{}
		for _, id := range tours[i].Guides {
			if g, ok := byID[id]; ok {
				guides = append(guides, *g)
			}
		}
		out = append(out, models.TourDetails{Tour: &tours[i], Guides: guides})
	}
	return out, nil
}

// populateReviewers expands each review's author to name and photo.
func populateReviewers(ctx context.Context, users UserStore, reviews []models.Review) ([]models.ReviewDetails, error) {
	ids := make([]primitive.ObjectID, 0, len(reviews))
	for _, r := range reviews {
		ids = append(ids, r.User)
	}
	byID, err := userSummaries(ctx, users, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.ReviewDetails, 0, len(reviews))
	for i := range reviews {
		d := models.ReviewDetails{Review: &reviews[i]}
		if u, ok := byID[reviews[i].User]; ok {
			d.User = &models.UserSummary{ID: u.ID, Name: u.Name, Photo: u.Photo}
		}
		out = append(out, d)
	}
	return out, nil
}
