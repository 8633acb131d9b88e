// Package seed loads development data from JSON files into the stores and
// clears it again.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"tours-service/models"
)

const (
	ToursFile   = "tours.json"
	UsersFile   = "users.json"
	ReviewsFile = "reviews.json"
)

type TourStore interface {
	Create(ctx context.Context, tour *models.Tour) error
	SetRatings(ctx context.Context, id primitive.ObjectID, stats models.RatingStats) error
	DeleteAll(ctx context.Context) error
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	DeleteAll(ctx context.Context) error
}

type ReviewStore interface {
	Create(ctx context.Context, review *models.Review) error
	RatingStats(ctx context.Context, tourID primitive.ObjectID) (models.RatingStats, error)
	DeleteAll(ctx context.Context) error
}

type Seeder struct {
	Tours      TourStore
	Users      UserStore
	Reviews    ReviewStore
	Log        *slog.Logger
	BcryptCost int
	Now        func() time.Time
}

type Summary struct {
	Tours   int
	Users   int
	Reviews int
}

// userRecord carries the password, which models.User never serializes.
// Seed files may hold either a bcrypt hash or a plaintext password.
type userRecord struct {
	models.User
	Password string `json:"password"`
}

func readJSON(dir, name string, v any) (bool, error) {
	raw, err := os.ReadFile(filepath.Join(dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("%s: %w", name, err)
	}
	return true, nil
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}

func (s *Seeder) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Import loads tours, users and reviews from dir in that order and then
// recomputes the rating summary of every reviewed tour. A missing users or
// reviews file is skipped; tours.json is required.
func (s *Seeder) Import(ctx context.Context, dir string) (Summary, error) {
	var sum Summary
	now := s.now().UTC()

	var tours []models.Tour
	ok, err := readJSON(dir, ToursFile, &tours)
	if err != nil {
		return sum, err
	}
	if !ok {
		return sum, fmt.Errorf("%s not found in %s", ToursFile, dir)
	}
	for i := range tours {
		t := &tours[i]
		t.ApplyDefaults(now)
		if err := models.Validate(t); err != nil {
			return sum, fmt.Errorf("tour %q: %w", t.Name, err)
		}
		if err := s.Tours.Create(ctx, t); err != nil {
			return sum, fmt.Errorf("tour %q: %w", t.Name, err)
		}
		sum.Tours++
	}

	var users []userRecord
	if _, err := readJSON(dir, UsersFile, &users); err != nil {
		return sum, err
	}
	for i := range users {
		u := &users[i].User
		u.Active = true
		if u.Role == "" {
			u.Role = models.RoleUser
		}
		if u.Photo == "" {
			u.Photo = models.DefaultPhoto
		}
		u.Email = strings.ToLower(strings.TrimSpace(u.Email))
		if err := models.Validate(u); err != nil {
			return sum, fmt.Errorf("user %q: %w", u.Email, err)
		}
		if pw := users[i].Password; isBcryptHash(pw) {
			u.Password = pw
		} else if err := u.SetPassword(pw, s.BcryptCost); err != nil {
			return sum, fmt.Errorf("user %q: %w", u.Email, err)
		}
		if err := s.Users.Create(ctx, u); err != nil {
			return sum, fmt.Errorf("user %q: %w", u.Email, err)
		}
		sum.Users++
	}

	var reviews []models.Review
	if _, err := readJSON(dir, ReviewsFile, &reviews); err != nil {
		return sum, err
	}
	touched := map[primitive.ObjectID]bool{}
	for i := range reviews {
		r := &reviews[i]
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		if err := models.Validate(r); err != nil {
			return sum, fmt.Errorf("review %d: %w", i, err)
		}
		if err := s.Reviews.Create(ctx, r); err != nil {
			return sum, fmt.Errorf("review %d: %w", i, err)
		}
		touched[r.Tour] = true
		sum.Reviews++
	}
	for id := range touched {
		stats, err := s.Reviews.RatingStats(ctx, id)
		if err != nil {
			return sum, err
		}
		if err := s.Tours.SetRatings(ctx, id, stats); err != nil {
			return sum, err
		}
	}

	if s.Log != nil {
		s.Log.Info("data imported", "tours", sum.Tours, "users", sum.Users, "reviews", sum.Reviews)
	}
	return sum, nil
}

// Delete empties all three collections.
func (s *Seeder) Delete(ctx context.Context) error {
	if err := s.Reviews.DeleteAll(ctx); err != nil {
		return err
	}
	if err := s.Tours.DeleteAll(ctx); err != nil {
		return err
	}
	if err := s.Users.DeleteAll(ctx); err != nil {
		return err
	}
	if s.Log != nil {
		s.Log.Info("data deleted")
	}
	return nil
}
