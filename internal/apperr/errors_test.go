package apperr_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Soumabha100/X-clone-backend/internal/apperr"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(apperr.ErrSelfReference))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(fmt.Errorf("wrapped: %w", apperr.ErrPostNotFound)))
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(errors.New("boom")))
	assert.Equal(t, apperr.Kind(""), apperr.KindOf(nil))
}

func TestErrorsIsMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("follow: %w", apperr.ErrSelfReference)
	assert.True(t, errors.Is(err, apperr.ErrSelfReference))
	assert.False(t, errors.Is(err, apperr.ErrAlreadyFollowing))
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestDeadlineIsRetryable(t *testing.T) {
	err := apperr.Internal("failed to follow user", fmt.Errorf("query: %w", context.DeadlineExceeded))
	assert.True(t, apperr.IsRetryable(err))
	assert.Equal(t, http.StatusServiceUnavailable, apperr.HTTPStatus(err))
	assert.Equal(t, "Request timed out, please retry", apperr.PublicMessage(err))
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperr.Validation("description is required"), http.StatusBadRequest},
		{apperr.ErrUserNotFound, http.StatusNotFound},
		{apperr.Forbidden("not your post"), http.StatusForbidden},
		{apperr.ErrNotFollowing, http.StatusConflict},
		{apperr.ErrInvalidCredentials, http.StatusUnauthorized},
		{apperr.Internal("db down", errors.New("connection refused")), http.StatusInternalServerError},
		{errors.New("unclassified"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, apperr.HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestPublicMessageHidesInternals(t *testing.T) {
	err := apperr.Internal("failed to load feed", errors.New("pq: relation posts does not exist"))
	assert.Equal(t, "Internal Server Error", apperr.PublicMessage(err))
	assert.Equal(t, "post not found", apperr.PublicMessage(apperr.ErrPostNotFound))
}
