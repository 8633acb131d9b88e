package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"tours-service/models"
	"tours-service/query"
)

const UserCollection = "users"

// activeOnly matches users that were never deactivated. Documents written
// before the flag existed have no active field and count as active.
var activeOnly = bson.M{"active": bson.M{"$ne": false}}

type UserRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewUserRepository(db *mongo.Database, timeout time.Duration) *UserRepository {
	return &UserRepository{coll: db.Collection(UserCollection), timeout: timeout}
}

func withActive(filter bson.M) bson.M {
	return bson.M{"$and": bson.A{activeOnly, filter}}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		return errors.WithStack(duplicateKey(err))
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var user models.User
	err := r.coll.FindOne(ctx, withActive(filter)).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	user.Active = true
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByResetToken(ctx context.Context, hashed string, now time.Time) (*models.User, error) {
	return r.findOne(ctx, bson.M{
		"passwordResetToken":   hashed,
		"passwordResetExpires": bson.M{"$gt": now},
	})
}

func (r *UserRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	return r.find(ctx, withActive(bson.M{"_id": bson.M{"$in": ids}}), nil)
}

func (r *UserRepository) Find(ctx context.Context, q *query.Query) ([]models.User, error) {
	return r.find(ctx, withActive(Filter(q)), q)
}

func (r *UserRepository) find(ctx context.Context, filter bson.M, q *query.Query) ([]models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.coll.Find(ctx, filter, FindOptions(q))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, errors.WithStack(err)
	}
	for i := range users {
		users[i].Active = true
	}
	return users, nil
}

// Replace writes the whole user document, including the active flag, so a
// deactivated user disappears from every later read.
func (r *UserRepository) Replace(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		return errors.WithStack(duplicateKey(err))
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) DeleteAll(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.coll.DeleteMany(ctx, bson.M{})
	return errors.WithStack(err)
}
