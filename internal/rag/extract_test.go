package rag

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incintel/incintel/internal/expressions"
)

func TestCanonicalRefs(t *testing.T) {
	text := "Incident INC-20260108-092438 (status: resolved) relates to INC-20260110-113000. " +
		"INC-20260108-092438 was mentioned twice."

	refs := CanonicalRefs(text)
	assert.Equal(t, []string{"INC-20260108-092438", "INC-20260110-113000"}, refs)
}

func TestCanonicalRefs_NoMatches(t *testing.T) {
	assert.Nil(t, CanonicalRefs("nothing cited here"))
}

func TestLegacyRefs(t *testing.T) {
	text := "See INC-101 and INC-1102 for details."
	assert.Equal(t, []string{"INC-101", "INC-1102"}, LegacyRefs(text))
}

func TestLegacyRefs_IgnoresCanonical(t *testing.T) {
	assert.Empty(t, LegacyRefs("only INC-20260108-092438 here"))
}

func TestContextSize_FromRefs(t *testing.T) {
	jq := expressions.NewGoJQEngine()
	refs := []string{"INC-20260108-092438", "INC-20260110-113000"}

	size := contextSize(context.Background(), jq, map[string]any{}, "", refs)
	require.NotNil(t, size)
	assert.Equal(t, 2, *size)
}

func TestContextSize_FromSources(t *testing.T) {
	jq := expressions.NewGoJQEngine()
	data := map[string]any{
		"response": "some answer",
		"sources":  []any{map[string]any{}, map[string]any{}, map[string]any{}},
	}

	size := contextSize(context.Background(), jq, data, "some answer", nil)
	require.NotNil(t, size)
	assert.Equal(t, 3, *size)
}

func TestContextSize_KeywordDensity(t *testing.T) {
	jq := expressions.NewGoJQEngine()
	text := strings.Repeat("incident severity: status: location: ", 4)

	size := contextSize(context.Background(), jq, map[string]any{}, text, nil)
	require.NotNil(t, size)
	assert.Equal(t, 4, *size)
}

func TestContextSize_Unknown(t *testing.T) {
	jq := expressions.NewGoJQEngine()

	size := contextSize(context.Background(), jq, map[string]any{}, "short reply", nil)
	assert.Nil(t, size)
}
