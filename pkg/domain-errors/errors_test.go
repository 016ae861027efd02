package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeLookupUnavailable, "person lookup failed")

	assert.ErrorIs(t, err, cause)
	assert.True(t, HasCode(err, CodeLookupUnavailable))
	assert.Equal(t, "person lookup failed: connection refused", err.Error())
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
}

func TestHasCodeWalksNestedDomainErrors(t *testing.T) {
	inner := New(CodeTenantMismatch, "company belongs to another tenant")
	outer := Wrap(fmt.Errorf("match: %w", inner), CodeInternal, "resolve failed")

	assert.True(t, HasCode(outer, CodeInternal))
	assert.True(t, HasCode(outer, CodeTenantMismatch))
	assert.False(t, HasCode(outer, CodeInvalidEvent))
	assert.Equal(t, CodeInternal, CodeOf(outer))
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"lookup unavailable", New(CodeLookupUnavailable, "x"), true},
		{"resolution conflict", New(CodeResolutionConflict, "x"), true},
		{"invalid event", New(CodeInvalidEvent, "x"), false},
		{"tenant mismatch", New(CodeTenantMismatch, "x"), false},
		{"plain", errors.New("x"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
