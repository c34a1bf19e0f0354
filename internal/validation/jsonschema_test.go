package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incintel/incintel/pkg/schema"
)

func newValidator(t *testing.T) *PayloadValidator {
	t.Helper()
	v, err := NewPayloadValidator()
	require.NoError(t, err)
	return v
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var ierr *schema.IntelError
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, schema.ErrCodeValidation, ierr.Code)
}

func TestValidateIncidentCreate(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{
			name:    "minimal valid",
			payload: `{"title": "Gas leak"}`,
		},
		{
			name:    "full valid",
			payload: `{"title": "Gas leak", "description": "strong smell", "severity": "high", "status": "open", "location": "Block A"}`,
		},
		{
			name:    "missing title",
			payload: `{"severity": "high"}`,
			wantErr: true,
		},
		{
			name:    "empty title",
			payload: `{"title": ""}`,
			wantErr: true,
		},
		{
			name:    "bad severity",
			payload: `{"title": "x", "severity": "catastrophic"}`,
			wantErr: true,
		},
		{
			name:    "unknown field",
			payload: `{"title": "x", "reporter": "alice"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			payload: `{{`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateIncidentCreate([]byte(tt.payload))
			if tt.wantErr {
				assertValidationError(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateIncidentUpdate(t *testing.T) {
	v := newValidator(t)

	assert.NoError(t, v.ValidateIncidentUpdate([]byte(`{"status": "resolved"}`)))
	assertValidationError(t, v.ValidateIncidentUpdate([]byte(`{}`)))
	assertValidationError(t, v.ValidateIncidentUpdate([]byte(`{"status": "finished"}`)))
	assertValidationError(t, v.ValidateIncidentUpdate([]byte(``)))
}

func TestValidateChatRequest(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{
			name:    "message only",
			payload: `{"message": "list all incidents"}`,
		},
		{
			name:    "with history",
			payload: `{"message": "and critical ones?", "history": [{"sender": "user", "message": "list incidents"}, {"sender": "ai", "message": "3 found"}]}`,
		},
		{
			name:    "missing message",
			payload: `{"history": []}`,
			wantErr: true,
		},
		{
			name:    "empty message",
			payload: `{"message": ""}`,
			wantErr: true,
		},
		{
			name:    "bad sender",
			payload: `{"message": "hi", "history": [{"sender": "bot", "message": "x"}]}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateChatRequest([]byte(tt.payload))
			if tt.wantErr {
				assertValidationError(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidationErrorsCarryViolations(t *testing.T) {
	v := newValidator(t)

	err := v.ValidateIncidentCreate([]byte(`{"title": "", "severity": "bogus"}`))
	require.Error(t, err)

	var ierr *schema.IntelError
	require.True(t, errors.As(err, &ierr))
	violations, ok := ierr.Details["violations"].([]string)
	require.True(t, ok)
	assert.NotEmpty(t, violations)
}

func TestDecodeStrict(t *testing.T) {
	var req schema.ChatRequest
	require.NoError(t, DecodeStrict([]byte(`{"message": "hello"}`), &req))
	assert.Equal(t, "hello", req.Message)

	err := DecodeStrict([]byte(`{"message": "hello", "extra": true}`), &req)
	assertValidationError(t, err)
}
