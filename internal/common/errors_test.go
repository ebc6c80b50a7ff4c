package common

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestStatusCode(t *testing.T) {
	assert.Equal(t, codes.OK, StatusCode(nil))
	assert.Equal(t, codes.NotFound, StatusCode(fmt.Errorf("get payslip: %w", ErrNotFound)))
	assert.Equal(t, codes.InvalidArgument, StatusCode(NewAppError("UPLOAD", "too big", ErrValidation)))
	assert.Equal(t, codes.InvalidArgument, StatusCode(ErrUnsupportedFormat))
	assert.Equal(t, codes.Internal, StatusCode(fmt.Errorf("insert: %w", ErrDatabase)))
	assert.Equal(t, codes.NotFound, StatusCode(NotFoundError("gone")))
}

func TestStatusFromErrorKeepsStatus(t *testing.T) {
	err := InvalidArgumentErrorf("bad %s", "period")
	assert.Equal(t, err, StatusFromError(err))

	s, ok := status.FromError(StatusFromError(ErrNotFound))
	assert.True(t, ok)
	assert.Equal(t, codes.NotFound, s.Code())
}

func TestAppErrorUnwrap(t *testing.T) {
	err := NewAppError("DB", "insert failed", ErrDatabase)
	assert.ErrorIs(t, err, ErrDatabase)
	assert.Equal(t, "DB: insert failed: database error", err.Error())
	assert.Nil(t, WrapError(nil, "x"))
}
