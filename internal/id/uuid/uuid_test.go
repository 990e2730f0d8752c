package uuid

import (
	"testing"
	"time"

	goUUID "github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunIDUnique(t *testing.T) {
	t.Parallel()

	id1, err := NewRunID()
	require.NoError(t, err)
	id2, err := NewRunID()
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	parsed, err := goUUID.Parse(id1)
	require.NoError(t, err)
	assert.Equal(t, goUUID.Version(7), parsed.Version())
}

func TestStartedAt(t *testing.T) {
	t.Parallel()

	before := time.Now().Add(-time.Second)
	id, err := NewRunID()
	require.NoError(t, err)

	started, err := StartedAt(id)
	require.NoError(t, err)
	assert.WithinRange(t, started, before, time.Now().Add(time.Second))

	_, err = StartedAt(goUUID.NewString())
	require.Error(t, err)
	_, err = StartedAt("not-a-uuid")
	require.Error(t, err)
}
