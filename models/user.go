package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleGuide     Role = "guide"
	RoleLeadGuide Role = "lead-guide"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
		return true
	}
	return false
}

const (
	DefaultPhoto      = "default.jpg"
	MinPasswordLength = 8
	PasswordCost      = 12
	ResetTokenTTL     = 10 * time.Minute
)

type User struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name                 string             `bson:"name" json:"name" validate:"required,notblank"`
	Email                string             `bson:"email" json:"email" validate:"required,email"`
	Photo                string             `bson:"photo" json:"photo"`
	Role                 Role               `bson:"role" json:"role" validate:"required,oneof=user guide lead-guide admin"`
	Password             string             `bson:"password" json:"-"`
	PasswordChangedAt    *time.Time         `bson:"passwordChangedAt,omitempty" json:"-"`
	PasswordResetToken   string             `bson:"passwordResetToken,omitempty" json:"-"`
	PasswordResetExpires *time.Time         `bson:"passwordResetExpires,omitempty" json:"-"`
	Active               bool               `bson:"active" json:"-"`
}

// UserSummary is the public projection embedded in tours and reviews.
type UserSummary struct {
	ID    primitive.ObjectID `bson:"_id" json:"_id"`
	Name  string             `bson:"name" json:"name"`
	Email string             `bson:"email,omitempty" json:"email,omitempty"`
	Photo string             `bson:"photo" json:"photo"`
	Role  Role               `bson:"role,omitempty" json:"role,omitempty"`
}

func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Photo: u.Photo, Role: u.Role}
}

func (u *User) SetPassword(plain string, cost int) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

func (u *User) CorrectPassword(candidate string) bool {
	if u.Password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(candidate)) == nil
}

// MarkPasswordChanged backdates the change by one second so a token issued in
// the same instant as the change is still accepted.
func (u *User) MarkPasswordChanged(now time.Time) {
	changed := now.Add(-time.Second)
	u.PasswordChangedAt = &changed
}

// ChangedPasswordAfter reports whether the password changed after a token
// issued at iat. Both sides are compared at second precision.
func (u *User) ChangedPasswordAfter(iat time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Unix() > iat.Unix()
}

func (u *User) SetResetToken(hashed string, now time.Time) {
	expires := now.Add(ResetTokenTTL)
	u.PasswordResetToken = hashed
	u.PasswordResetExpires = &expires
}

func (u *User) ClearResetToken() {
	u.PasswordResetToken = ""
	u.PasswordResetExpires = nil
}

func (u *User) ResetTokenValid(now time.Time) bool {
	return u.PasswordResetToken != "" && u.PasswordResetExpires != nil && u.PasswordResetExpires.After(now)
}
