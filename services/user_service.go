package services

import (
	"context"
	"encoding/json"
	"strings"

	"tours-service/apperr"
	"tours-service/models"
	"tours-service/query"
)

// UserService holds the admin operations on user accounts.
type UserService struct {
	deps
	users UserStore
	auth  *AuthService
}

func NewUserService(users UserStore, auth *AuthService, opts ...Option) *UserService {
	return &UserService{deps: newDeps(opts), users: users, auth: auth}
}

func (s *UserService) List(ctx context.Context, q *query.Query) ([]models.User, error) {
	return s.users.Find(ctx, q)
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, oid)
	if err != nil {
		return nil, notFound(err, id)
	}
	return user, nil
}

type CreateUserInput struct {
	SignupInput
	Role models.Role `json:"role"`
}

func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	return s.auth.CreateUser(ctx, in.SignupInput, in.Role)
}

type userPatch struct {
	Name            *string      `json:"name"`
	Email           *string      `json:"email"`
	Photo           *string      `json:"photo"`
	Role            *models.Role `json:"role"`
	Password        *string      `json:"password"`
	PasswordConfirm *string      `json:"passwordConfirm"`
}

// Update applies an admin patch. Passwords can only change through the
// password routes.
func (s *UserService) Update(ctx context.Context, id string, body []byte) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var patch userPatch
	if len(body) == 0 {
		return nil, apperr.Validation("Request body is empty")
	}
	if err := json.Unmarshal(body, &patch); err != nil {
		return nil, err
	}
	if patch.Password != nil || patch.PasswordConfirm != nil {
		return nil, apperr.Validation("This route is not for password updates. Please use /updatePassword.")
	}
	if patch.Name != nil {
		user.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil {
		user.Email = normalizeEmail(*patch.Email)
	}
	if patch.Photo != nil {
		user.Photo = *patch.Photo
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}
	if err := models.Validate(user); err != nil {
		return nil, err
	}
	if err := s.users.Replace(ctx, user); err != nil {
		return nil, notFound(err, id)
	}
	return user, nil
}

// Delete deactivates the account. Users are never removed from storage.
func (s *UserService) Delete(ctx context.Context, id string) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.auth.deactivate(ctx, user)
}
