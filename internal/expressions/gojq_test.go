package expressions

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incintel/incintel/pkg/schema"
)

func ragReply() map[string]any {
	return map[string]any{
		"response": "Two high severity incidents are open in Sector 7.",
		"sources": []any{
			map[string]any{"incident_id": "INC-20260812-141503", "score": 0.91},
			map[string]any{"incident_id": "INC-20260813-090011", "score": 0.74},
		},
	}
}

func TestNewGoJQEngine(t *testing.T) {
	e := NewGoJQEngine()
	assert.NotNil(t, e)
	assert.Equal(t, "jq", e.Name())
}

func TestGoJQ_FieldExtraction(t *testing.T) {
	e := NewGoJQEngine()

	out, err := e.Evaluate(context.Background(), ".response", ragReply())
	require.NoError(t, err)
	assert.Equal(t, "Two high severity incidents are open in Sector 7.", out)
}

func TestGoJQ_SourceCount(t *testing.T) {
	e := NewGoJQEngine()

	out, err := e.Evaluate(context.Background(), ".sources | length", ragReply())
	require.NoError(t, err)
	assert.Equal(t, 2, out)
}

func TestGoJQ_MultipleOutputsCollected(t *testing.T) {
	e := NewGoJQEngine()

	out, err := e.Evaluate(context.Background(), ".sources[].incident_id", ragReply())
	require.NoError(t, err)
	assert.Equal(t, []any{"INC-20260812-141503", "INC-20260813-090011"}, out)
}

func TestGoJQ_MissingFieldIsNil(t *testing.T) {
	e := NewGoJQEngine()

	out, err := e.Evaluate(context.Background(), ".context_size", ragReply())
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestGoJQ_NumbersNormalized(t *testing.T) {
	e := NewGoJQEngine()
	data := map[string]any{"count": 7}

	out, err := e.Evaluate(context.Background(), ".count * 2", data)
	require.NoError(t, err)
	assert.Equal(t, 14.0, out)
}

func TestGoJQ_EmptyExpression(t *testing.T) {
	e := NewGoJQEngine()

	_, err := e.Evaluate(context.Background(), "", nil)
	require.Error(t, err)

	var ierr *schema.IntelError
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, schema.ErrCodeValidation, ierr.Code)
}

func TestGoJQ_ParseError(t *testing.T) {
	e := NewGoJQEngine()

	_, err := e.Evaluate(context.Background(), ".sources[", ragReply())
	require.Error(t, err)

	var ierr *schema.IntelError
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, schema.ErrCodeValidation, ierr.Code)
}

func TestGoJQ_EnvAccessBlocked(t *testing.T) {
	e := NewGoJQEngine()

	out, err := e.Evaluate(context.Background(), `env.HOME`, map[string]any{})
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestGoJQ_CacheReuse(t *testing.T) {
	e := NewGoJQEngine()

	for range 3 {
		_, err := e.Evaluate(context.Background(), ".response", ragReply())
		require.NoError(t, err)
	}
	assert.Len(t, e.cache, 1)
}
