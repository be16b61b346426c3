package entitykit

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSentinelErrors tests that all sentinel errors are properly defined
func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrConfiguration", ErrConfiguration, "entitykit: configuration error"},
		{"ErrInvalidQuery", ErrInvalidQuery, "entitykit: invalid query"},
		{"ErrEntityNotFound", ErrEntityNotFound, "entitykit: entity not found"},
		{"ErrDuplicateEntity", ErrDuplicateEntity, "entitykit: entity already exists"},
		{"ErrDatabaseError", ErrDatabaseError, "entitykit: database error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.msg, tt.err.Error())
			assert.NotNil(t, tt.err)
		})
	}
}

// TestError_Error tests the Error method of Error struct
func TestError_Error(t *testing.T) {
	t.Run("With message", func(t *testing.T) {
		err := NewError(ErrInvalidQuery, "field \"color\" is not sortable")
		assert.Equal(t, "entitykit: invalid query: field \"color\" is not sortable", err.Error())
	})

	t.Run("Without message", func(t *testing.T) {
		err := &Error{Err: ErrEntityNotFound}
		assert.Equal(t, "entitykit: entity not found", err.Error())
	})
}

// TestError_Unwrap tests unwrapping to the sentinel
func TestError_Unwrap(t *testing.T) {
	err := NewError(ErrEntityNotFound, "entity [widgets] with id=3 does not exist")

	assert.True(t, errors.Is(err, ErrEntityNotFound))
	assert.False(t, errors.Is(err, ErrDuplicateEntity))
	assert.Equal(t, ErrEntityNotFound, errors.Unwrap(err))
}

// TestError_Builders tests the WithEntity/WithField/WithID builders
func TestError_Builders(t *testing.T) {
	err := NewError(ErrInvalidQuery, "field not filterable").
		WithEntity("widgets").
		WithField("color").
		WithID(int64(7))

	assert.Equal(t, "widgets", err.Entity)
	assert.Equal(t, "color", err.Field)
	assert.Equal(t, int64(7), err.ID)
}

// TestError_ThroughWrapping tests classification after further wrapping
func TestError_ThroughWrapping(t *testing.T) {
	inner := NewError(ErrDuplicateEntity, "entity [users] matching filters already exists")
	wrapped := fmt.Errorf("creating account: %w", inner)

	assert.True(t, IsDuplicate(wrapped))

	var richErr *Error
	assert.True(t, errors.As(wrapped, &richErr))
	assert.Equal(t, inner, richErr)
}

// TestErrorPredicates tests the Is* helper functions
func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		predicate func(error) bool
		want      bool
	}{
		{"IsConfiguration on configuration error", NewError(ErrConfiguration, ""), IsConfiguration, true},
		{"IsConfiguration on other error", NewError(ErrInvalidQuery, ""), IsConfiguration, false},
		{"IsInvalidQuery on invalid query", NewError(ErrInvalidQuery, ""), IsInvalidQuery, true},
		{"IsNotFound on not found", NewError(ErrEntityNotFound, ""), IsNotFound, true},
		{"IsNotFound on nil", nil, IsNotFound, false},
		{"IsDuplicate on duplicate", NewError(ErrDuplicateEntity, ""), IsDuplicate, true},
		{"IsDuplicate on plain error", errors.New("boom"), IsDuplicate, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.predicate(tt.err))
		})
	}
}
