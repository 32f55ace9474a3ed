package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type analysisProbe struct {
	Complexity    string   `json:"complexity"`
	SearchQueries []string `json:"searchQueries"`
}

func TestExtractJSONRawObject(t *testing.T) {
	var out analysisProbe
	err := extractJSON(`{"complexity":"simple","searchQueries":["a","b"]}`, &out)
	require.NoError(t, err)
	assert.Equal(t, "simple", out.Complexity)
	assert.Equal(t, []string{"a", "b"}, out.SearchQueries)
}

func TestExtractJSONFencedBlock(t *testing.T) {
	var out analysisProbe
	err := extractJSON("```\n{\"complexity\":\"moderate\",\"searchQueries\":[\"q\"]}\n```", &out)
	require.NoError(t, err)
	assert.Equal(t, "moderate", out.Complexity)
}

func TestExtractJSONFencedBlockWithLanguageTag(t *testing.T) {
	var out analysisProbe
	err := extractJSON("```json\n{\"complexity\":\"complex\",\"searchQueries\":[\"q\"]}\n```", &out)
	require.NoError(t, err)
	assert.Equal(t, "complex", out.Complexity)
}

func TestExtractJSONFenceSurroundedByProse(t *testing.T) {
	raw := "Here is the analysis you asked for:\n```json\n{\"complexity\":\"simple\",\"searchQueries\":[\"q\"]}\n```\nLet me know if you need anything else."
	var out analysisProbe
	err := extractJSON(raw, &out)
	require.NoError(t, err)
	assert.Equal(t, "simple", out.Complexity)
}

func TestExtractJSONEquivalence(t *testing.T) {
	// Fenced and unfenced payloads must parse to the same object.
	payload := `{"complexity":"multi-part","searchQueries":["x","y","z"]}`

	var plain, fenced analysisProbe
	require.NoError(t, extractJSON(payload, &plain))
	require.NoError(t, extractJSON("```json\n"+payload+"\n```", &fenced))
	assert.Equal(t, plain, fenced)
}

func TestExtractJSONMalformed(t *testing.T) {
	var out analysisProbe
	err := extractJSON(`{"complexity": "simple",`, &out)
	require.Error(t, err)
	assert.IsType(t, &ParseError{}, err)
}

func TestExtractJSONMalformedFence(t *testing.T) {
	var out analysisProbe
	err := extractJSON("```json\nnot json at all\n```", &out)
	require.Error(t, err)
	assert.IsType(t, &ParseError{}, err)
}

func TestExtractJSONEmpty(t *testing.T) {
	var out analysisProbe
	err := extractJSON("", &out)
	require.Error(t, err)
	assert.IsType(t, &ParseError{}, err)

	err = extractJSON("   \n\t ", &out)
	require.Error(t, err)
}
