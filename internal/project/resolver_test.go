package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDedupesIndexes(t *testing.T) {
	r := NewResolver()
	sel, err := r.Resolve("proj-1", []string{"a", "b", "a", "", "b"})
	require.NoError(t, err)
	assert.Equal(t, "proj-1", sel.ProjectID)
	assert.Equal(t, []string{"a", "b"}, sel.IndexIDs)
}

func TestResolveEmptyProject(t *testing.T) {
	r := NewResolver()
	_, err := r.Resolve("", []string{"a"})
	require.Error(t, err)
}

func TestResolveNoIndexes(t *testing.T) {
	r := NewResolver()
	sel, err := r.Resolve("proj-1", nil)
	require.NoError(t, err)
	assert.Empty(t, sel.IndexIDs)
}
