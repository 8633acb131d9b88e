package memory

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"tours-service/models"
	"tours-service/query"
	"tours-service/repository"
)

// UserStore hides deactivated users from every read, like the mongo
// repository's active filter.
type UserStore struct {
	c *collection[models.User]
}

func NewUserStore() *UserStore {
	return &UserStore{c: newCollection(
		func(u models.User) primitive.ObjectID { return u.ID },
		uniqueIndex[models.User]{name: "name_1", fields: []string{"name"}, key: func(u models.User) string { return u.Name }},
		uniqueIndex[models.User]{name: "email_1", fields: []string{"email"}, key: func(u models.User) string { return u.Email }},
	)}
}

func active(u models.User) bool { return u.Active }

func (s *UserStore) Create(_ context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	return s.c.insert(*user)
}

func (s *UserStore) first(pred func(models.User) bool) (*models.User, error) {
	for _, u := range s.c.all() {
		if active(u) && pred(u) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *UserStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := s.c.get(id)
	if !ok || !active(u) {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return s.first(func(u models.User) bool { return u.Email == email })
}

func (s *UserStore) FindByResetToken(_ context.Context, hashed string, now time.Time) (*models.User, error) {
	return s.first(func(u models.User) bool {
		return u.PasswordResetToken == hashed && u.ResetTokenValid(now)
	})
}

func (s *UserStore) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	want := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	return apply(s.c.all(), nil, func(u models.User) bool { return active(u) && want[u.ID] }), nil
}

func (s *UserStore) Find(_ context.Context, q *query.Query) ([]models.User, error) {
	return apply(s.c.all(), q, active), nil
}

func (s *UserStore) Replace(_ context.Context, user *models.User) error {
	return s.c.replace(*user)
}

func (s *UserStore) DeleteAll(_ context.Context) error {
	s.c.removeWhere(func(models.User) bool { return true })
	return nil
}

// Stored returns a user regardless of the active flag.
func (s *UserStore) Stored(id primitive.ObjectID) (*models.User, bool) {
	u, ok := s.c.get(id)
	if !ok {
		return nil, false
	}
	return &u, true
}
