package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"tours-service/models"
	"tours-service/query"
	"tours-service/repository/memory"
)

type stores struct {
	tours   *memory.TourStore
	users   *memory.UserStore
	reviews *memory.ReviewStore
}

func newSeeder() (*Seeder, stores) {
	st := stores{tours: memory.NewTourStore(), users: memory.NewUserStore(), reviews: memory.NewReviewStore()}
	return &Seeder{
		Tours:      st.tours,
		Users:      st.users,
		Reviews:    st.reviews,
		BcryptCost: bcrypt.MinCost,
		Now:        func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) },
	}, st
}

func TestImportDevData(t *testing.T) {
	s, st := newSeeder()
	ctx := context.Background()

	sum, err := s.Import(ctx, filepath.Join("..", "dev-data"))
	require.NoError(t, err)
	assert.Equal(t, Summary{Tours: 3, Users: 5, Reviews: 3}, sum)

	sea, err := primitive.ObjectIDFromHex("5c88fa8cf4afda39709c2955")
	require.NoError(t, err)
	tour, err := st.tours.FindByID(ctx, sea)
	require.NoError(t, err)
	assert.Equal(t, "the-sea-explorer", tour.Slug)
	assert.Equal(t, 4.5, tour.RatingsAverage)
	assert.Equal(t, 2, tour.RatingsQuantity)

	admin, err := st.users.FindByEmail(ctx, "admin@natours.io")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.True(t, admin.CorrectPassword("test1234"))
}

func TestImportKeepsBcryptHashes(t *testing.T) {
	s, st := newSeeder()
	dir := t.TempDir()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret-pw"), bcrypt.MinCost)
	require.NoError(t, err)

	write(t, dir, ToursFile, `[]`)
	write(t, dir, UsersFile, `[{"name":"Hashed","email":"h@example.com","password":"`+string(hash)+`"}]`)

	sum, err := s.Import(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Users)

	u, err := st.users.FindByEmail(context.Background(), "h@example.com")
	require.NoError(t, err)
	assert.Equal(t, string(hash), u.Password)
	assert.True(t, u.CorrectPassword("secret-pw"))
	assert.Equal(t, models.RoleUser, u.Role)
}

func TestImportErrors(t *testing.T) {
	s, _ := newSeeder()

	_, err := s.Import(context.Background(), t.TempDir())
	assert.ErrorContains(t, err, "tours.json not found")

	dir := t.TempDir()
	write(t, dir, ToursFile, `{not json`)
	_, err = s.Import(context.Background(), dir)
	assert.ErrorContains(t, err, "tours.json")

	dir = t.TempDir()
	write(t, dir, ToursFile, `[{"name":"Bad"}]`)
	_, err = s.Import(context.Background(), dir)
	assert.ErrorContains(t, err, `tour "Bad"`)
}

func TestDelete(t *testing.T) {
	s, st := newSeeder()
	ctx := context.Background()
	_, err := s.Import(ctx, filepath.Join("..", "dev-data"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx))

	tours, err := st.tours.Find(ctx, &query.Query{})
	require.NoError(t, err)
	assert.Empty(t, tours)
	users, err := st.users.Find(ctx, &query.Query{})
	require.NoError(t, err)
	assert.Empty(t, users)
	reviews, err := st.reviews.Find(ctx, &query.Query{})
	require.NoError(t, err)
	assert.Empty(t, reviews)
}

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}
