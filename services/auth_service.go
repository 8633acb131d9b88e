package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"tours-service/apperr"
	"tours-service/events"
	"tours-service/mailer"
	"tours-service/models"
	"tours-service/repository"
	"tours-service/utils"
)

const (
	msgIncorrectLogin  = "Incorrect email or password"
	msgNotLoggedIn     = "You are not logged in! Please log in to get access."
	msgUserGone        = "The user belonging to this token no longer exists."
	msgPasswordChanged = "User recently changed password! Please log in again."
	msgResetInvalid    = "Token is invalid or has expired"
	msgWrongPassword   = "Your current password is wrong."
)

// Session is the result of a successful login: the user and a signed token.
type Session struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

type SignupInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Photo           string `json:"photo"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

type AuthService struct {
	deps
	users      UserStore
	tokens     *utils.TokenManager
	mail       Mailer
	bcryptCost int
}

func NewAuthService(users UserStore, tokens *utils.TokenManager, mail Mailer, bcryptCost int, opts ...Option) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = models.PasswordCost
	}
	return &AuthService{deps: newDeps(opts), users: users, tokens: tokens, mail: mail, bcryptCost: bcryptCost}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validatePassword(password, confirm string) error {
	if len(password) < models.MinPasswordLength {
		return apperr.Validation(fmt.Sprintf("Invalid input data. Password must be at least %d characters long.", models.MinPasswordLength), "password")
	}
	if password != confirm {
		return apperr.Validation("Invalid input data. Passwords are not the same!", "passwordConfirm")
	}
	return nil
}

// newUser validates input and builds an active user with a hashed password.
func (s *AuthService) newUser(in SignupInput, role models.Role) (*models.User, error) {
	if err := validatePassword(in.Password, in.PasswordConfirm); err != nil {
		return nil, err
	}
	user := &models.User{
		Name:   strings.TrimSpace(in.Name),
		Email:  normalizeEmail(in.Email),
		Photo:  in.Photo,
		Role:   role,
		Active: true,
	}
	if user.Photo == "" {
		user.Photo = models.DefaultPhoto
	}
	if err := models.Validate(user); err != nil {
		return nil, err
	}
	if err := user.SetPassword(in.Password, s.bcryptCost); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	user, err := s.newUser(in, models.RoleUser)
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info("user signed up", "user_id", user.ID.Hex())
	return s.session(user)
}

// CreateUser is the admin path: it takes an explicit role and issues no
// token.
func (s *AuthService) CreateUser(ctx context.Context, in SignupInput, role models.Role) (*models.User, error) {
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, apperr.Validationf("Invalid input data. Invalid role: %s", role)
	}
	user, err := s.newUser(in, role)
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, apperr.Validation("Please provide email and password!")
	}
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Auth(msgIncorrectLogin)
	}
	if err != nil {
		return nil, err
	}
	if !user.CorrectPassword(password) {
		return nil, apperr.Auth(msgIncorrectLogin)
	}
	return s.session(user)
}

func (s *AuthService) session(user *models.User) (*Session, error) {
	token, expires, err := s.tokens.GenerateJWT(user.ID.Hex(), s.now())
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{User: user, Token: token, ExpiresAt: expires}, nil
}

// Authenticate resolves the user a bearer token belongs to. The token must
// verify, the user must still be active and must not have changed the
// password since the token was issued.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperr.Auth(msgNotLoggedIn)
	}
	claims, err := s.tokens.ParseJWT(token, s.now())
	if err != nil {
		return nil, err
	}
	id, err := primitive.ObjectIDFromHex(claims.ID)
	if err != nil {
		return nil, apperr.Auth(msgUserGone)
	}
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Auth(msgUserGone)
	}
	if err != nil {
		return nil, err
	}
	if user.ChangedPasswordAfter(claims.IssuedAt.Time) {
		return nil, apperr.Auth(msgPasswordChanged)
	}
	return user, nil
}

// ForgotPassword stores a reset token for the user and mails its plaintext.
// resetURL builds the link from the plaintext token. When the mail cannot be
// sent the token is cleared again.
func (s *AuthService) ForgotPassword(ctx context.Context, email string, resetURL func(token string) string) error {
	if strings.TrimSpace(email) == "" {
		return apperr.Validation("Please provide your email address.")
	}
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("There is no user with that email address.")
	}
	if err != nil {
		return err
	}

	plain, hashed, err := utils.NewResetToken()
	if err != nil {
		return fmt.Errorf("reset token: %w", err)
	}
	user.SetResetToken(hashed, s.now())
	if err := s.users.Replace(ctx, user); err != nil {
		return err
	}

	msg := mailer.Message{
		To:      user.Email,
		Subject: "Your password reset token (valid for 10 min)",
		Body: fmt.Sprintf("Forgot your password? Submit a PATCH request with your new password and passwordConfirm to: %s.\n"+
			"If you didn't forget your password, please ignore this email!", resetURL(plain)),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		user.ClearResetToken()
		if rerr := s.users.Replace(ctx, user); rerr != nil {
			s.log.Error("clearing reset token failed", "user_id", user.ID.Hex(), "error", rerr)
		}
		return apperr.Internal(err, "There was an error sending the email. Try again later!")
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, password, confirm string) (*Session, error) {
	now := s.now()
	user, err := s.users.FindByResetToken(ctx, utils.HashToken(token), now)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Validation(msgResetInvalid)
	}
	if err != nil {
		return nil, err
	}
	if err := validatePassword(password, confirm); err != nil {
		return nil, err
	}
	if err := user.SetPassword(password, s.bcryptCost); err != nil {
		return nil, err
	}
	user.ClearResetToken()
	user.MarkPasswordChanged(now)
	if err := s.users.Replace(ctx, user); err != nil {
		return nil, err
	}
	return s.session(user)
}

func (s *AuthService) UpdatePassword(ctx context.Context, user *models.User, current, password, confirm string) (*Session, error) {
	fresh, err := s.users.FindByID(ctx, user.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Auth(msgUserGone)
	}
	if err != nil {
		return nil, err
	}
	if !fresh.CorrectPassword(current) {
		return nil, apperr.Auth(msgWrongPassword)
	}
	if err := validatePassword(password, confirm); err != nil {
		return nil, err
	}
	if err := fresh.SetPassword(password, s.bcryptCost); err != nil {
		return nil, err
	}
	fresh.MarkPasswordChanged(s.now())
	if err := s.users.Replace(ctx, fresh); err != nil {
		return nil, err
	}
	return s.session(fresh)
}

// UpdateMe changes the caller's name and email. Any other field in the body
// is ignored; password fields are rejected.
func (s *AuthService) UpdateMe(ctx context.Context, user *models.User, body map[string]any) (*models.User, error) {
	if _, ok := body["password"]; ok {
		return nil, apperr.Validation("This route is not for password updates. Please use /updatePassword.")
	}
	if _, ok := body["passwordConfirm"]; ok {
		return nil, apperr.Validation("This route is not for password updates. Please use /updatePassword.")
	}
	fresh, err := s.users.FindByID(ctx, user.ID)
	if err != nil {
		return nil, notFound(err, user.ID.Hex())
	}
	if v, ok := body["name"].(string); ok {
		fresh.Name = strings.TrimSpace(v)
	}
	if v, ok := body["email"].(string); ok {
		fresh.Email = normalizeEmail(v)
	}
	if err := models.Validate(fresh); err != nil {
		return nil, err
	}
	if err := s.users.Replace(ctx, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

func (s *AuthService) DeleteMe(ctx context.Context, user *models.User, password string) error {
	fresh, err := s.users.FindByID(ctx, user.ID)
	if err != nil {
		return notFound(err, user.ID.Hex())
	}
	if !fresh.CorrectPassword(password) {
		return apperr.Auth("Your password is wrong.")
	}
	return s.deactivate(ctx, fresh)
}

func (s *AuthService) deactivate(ctx context.Context, user *models.User) error {
	user.Active = false
	if err := s.users.Replace(ctx, user); err != nil {
		return err
	}
	s.publish(ctx, events.UserDeactivated, map[string]string{"userId": user.ID.Hex()})
	return nil
}
