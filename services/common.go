package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"tours-service/apperr"
	"tours-service/metrics"
	"tours-service/repository"
)

func parseID(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apperr.Validationf("Invalid _id: %s", raw)
	}
	return id, nil
}

// notFound maps a missing document to the client-facing 404 and passes
// every other error through.
func notFound(err error, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFoundf("No document found with %s ID", id)
	}
	return err
}

func decodePatch(body []byte, target any) error {
	if len(body) == 0 {
		return apperr.Validation("Request body is empty")
	}
	return apperr.Decode(json.Unmarshal(body, target))
}

// deps carries what every service shares.
type deps struct {
	log     *slog.Logger
	events  Publisher
	now     func() time.Time
	metrics *metrics.Registry
}

type Option func(*deps)

func WithClock(now func() time.Time) Option {
	return func(d *deps) { d.now = now }
}

func WithLogger(log *slog.Logger) Option {
	return func(d *deps) { d.log = log }
}

func WithEvents(p Publisher) Option {
	return func(d *deps) { d.events = p }
}

func WithMetrics(m *metrics.Registry) Option {
	return func(d *deps) { d.metrics = m }
}

func newDeps(opts []Option) deps {
	d := deps{
		log:    slog.New(slog.DiscardHandler),
		events: noopPublisher{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

type noopPublisher struct{}

func (noopPublisher) Publish(_ context.Context, _ string, _ any) error { return nil }

// publish sends an event and logs a failure. Events are notifications, so a
// failed publish never fails the request.
func (d deps) publish(ctx context.Context, eventType string, data any) {
	if err := d.events.Publish(ctx, eventType, data); err != nil {
		d.log.Warn("event publish failed", "type", eventType, "error", err)
	}
}
