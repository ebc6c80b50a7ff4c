package common

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestValidatorCollectsErrors(t *testing.T) {
	v := NewValidator().
		Field("id", "not-a-uuid", UUID).
		Field("period", "13/2024", Period).
		Field("name", "  ", Required).
		Field("limit", 0, Between(1, 500))

	assert.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 4)

	err := ValidateAndReturnError(v)
	s, _ := status.FromError(err)
	assert.Equal(t, codes.InvalidArgument, s.Code())
	assert.Contains(t, s.Message(), "MM/YYYY")
}

func TestValidatorPasses(t *testing.T) {
	v := NewValidator().
		Field("id", uuid.NewString(), Required, UUID).
		Field("period", "03/2024", Period).
		Field("name", "Silva", Required, MaxLen(10)).
		Field("limit", 100, Between(1, 500))

	assert.False(t, v.HasErrors())
	assert.NoError(t, v.Error())
	assert.NoError(t, ValidateAndReturnError(v))
}
