package mailer

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tours-service/config"
	"tours-service/metrics"
)

func TestNewPicksDriver(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	s, err := New(config.MailConfig{Driver: "log"}, log)
	require.NoError(t, err)
	require.IsType(t, &LogMailer{}, s)

	require.NoError(t, s.Send(context.Background(), Message{To: "a@b.c", Subject: "Your password reset token", Body: "link"}))
	assert.Contains(t, buf.String(), "Your password reset token")

	s, err = New(config.MailConfig{Driver: "smtp", Host: "smtp.example.com", Port: 2525, Username: "u", Password: "p", From: "x@example.com"}, log)
	require.NoError(t, err)
	assert.IsType(t, &SMTPMailer{}, s)
}

func TestSMTPRejectsBadAddress(t *testing.T) {
	m, err := NewSMTP(config.MailConfig{Host: "smtp.example.com", Port: 2525, From: "not an address"})
	require.NoError(t, err)

	err = m.Send(context.Background(), Message{To: "a@b.c", Subject: "s", Body: "b"})
	assert.ErrorContains(t, err, "from address")
}

func TestWithMetricsCountsSends(t *testing.T) {
	m := metrics.NewRegistry()
	s := WithMetrics(NewLog(slog.New(slog.DiscardHandler)), m)

	require.NoError(t, s.Send(context.Background(), Message{To: "a@b.c"}))
	require.NoError(t, s.Send(context.Background(), Message{To: "d@e.f"}))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EmailsSent.WithLabelValues("ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.EmailsSent.WithLabelValues("error")))
}
