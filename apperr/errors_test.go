package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:      http.StatusBadRequest,
		KindAuth:            http.StatusUnauthorized,
		KindAuthz:           http.StatusForbidden,
		KindNotFound:        http.StatusNotFound,
		KindTooManyRequests: http.StatusTooManyRequests,
		KindInternal:        http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, kind.Status(), kind.String())
	}
}

func TestAsThroughWrapping(t *testing.T) {
	base := NotFoundf("No document found with %s ID", "abc")
	wrapped := fmt.Errorf("loading tour: %w", base)

	got, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, "No document found with abc ID", got.Message)
	assert.True(t, IsKind(wrapped, KindNotFound))
	assert.False(t, IsKind(errors.New("plain"), KindNotFound))
}

func TestOperational(t *testing.T) {
	cause := errors.New("socket closed")
	err := Internal(cause, "There was an error sending the email. Try again later!")

	assert.True(t, err.Operational())
	assert.Equal(t, http.StatusInternalServerError, err.Status())
	assert.ErrorIs(t, err, cause)

	assert.False(t, Unexpected(cause, "Something went wrong").Operational())
	assert.True(t, Validation("bad").Operational())
}
