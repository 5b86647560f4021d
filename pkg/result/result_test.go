package result

import (
	"testing"

	"agentdesk/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOk(t *testing.T) {
	r := Ok(42)

	assert.True(t, r.IsOk())
	assert.Equal(t, 42, r.Value())
	assert.Nil(t, r.Failure())
	assert.Empty(t, r.Kind())

	v, err := r.Unwrap()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestErr(t *testing.T) {
	failure := errors.NewTransportError("/users", nil)
	r := Err[[]string](failure)

	assert.False(t, r.IsOk())
	assert.Nil(t, r.Value())
	assert.Same(t, failure, r.Failure())
	assert.Equal(t, errors.ErrCodeTransport, r.Kind())

	_, err := r.Unwrap()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeTransport))
}

func TestErr_NilFailureIsStillAnError(t *testing.T) {
	r := Err[int](nil)

	assert.False(t, r.IsOk())
	assert.Equal(t, errors.ErrCodeInternal, r.Kind())
}

func TestMap(t *testing.T) {
	doubled := Map(Ok(21), func(v int) int { return v * 2 })
	assert.Equal(t, 42, doubled.Value())

	failed := Map(Err[int](errors.NewMalformedResponseError("/documents", nil)), func(v int) string {
		t.Fatal("mapper must not run on a failed result")
		return ""
	})
	assert.Equal(t, errors.ErrCodeMalformedResponse, failed.Kind())
}
