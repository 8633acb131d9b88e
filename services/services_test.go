package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tours-service/mailer"
	"tours-service/metrics"
	"tours-service/models"
	"tours-service/repository/memory"
	"tours-service/utils"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	return nil
}

type env struct {
	clock   *fakeClock
	mail    *fakeMailer
	events  *recordingPublisher
	users   *memory.UserStore
	tours   *memory.TourStore
	reviews *memory.ReviewStore
	auth    *AuthService
	userSvc *UserService
	tourSvc *TourService
	revSvc  *ReviewService
	metrics *metrics.Registry
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		clock:   &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
		mail:    &fakeMailer{},
		events:  &recordingPublisher{},
		users:   memory.NewUserStore(),
		tours:   memory.NewTourStore(),
		reviews: memory.NewReviewStore(),
		metrics: metrics.NewRegistry(),
	}
	opts := []Option{WithClock(e.clock.Now), WithEvents(e.events), WithMetrics(e.metrics)}
	tokens := utils.NewTokenManager("test-secret", 90*24*time.Hour)
	e.auth = NewAuthService(e.users, tokens, e.mail, bcrypt.MinCost, opts...)
	e.userSvc = NewUserService(e.users, e.auth, opts...)
	e.tourSvc = NewTourService(e.tours, e.reviews, e.users, opts...)
	e.revSvc = NewReviewService(e.reviews, e.tours, e.users, opts...)
	return e
}

func (e *env) signup(t *testing.T, name, email string) *Session {
	t.Helper()
	s, err := e.auth.Signup(context.Background(), SignupInput{
		Name: name, Email: email, Password: "pass1234", PasswordConfirm: "pass1234",
	})
	require.NoError(t, err)
	return s
}

func (e *env) createTour(t *testing.T, name string, price float64) *models.Tour {
	t.Helper()
	tour, err := e.tourSvc.Create(context.Background(), &models.Tour{
		Name:          name,
		Duration:      5,
		MaxGroupSize:  25,
		Difficulty:    models.Easy,
		Price:         price,
		Summary:       "Breathtaking hike through the Canadian Banff National Park",
		ImageCover:    "tour-1-cover.jpg",
		StartLocation: models.StartLocation{GeoPoint: models.NewPoint(-118.80, 34.01), Address: "Malibu"},
	})
	require.NoError(t, err)
	return tour
}

var errSMTP = errors.New("smtp down")
