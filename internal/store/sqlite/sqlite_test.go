package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Provider_SetGetDelete(t *testing.T) {
	p, err := Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	assert.Equal(t, "fallback", p.Get("missing", "fallback"))

	p.Set("p:1:volume", 0.25)
	assert.Equal(t, 0.25, p.Get("p:1:volume", nil))
	assert.True(t, p.Has("p:1:volume"))

	p.Delete("p:1:volume")
	assert.False(t, p.Has("p:1:volume"))
	require.NoError(t, p.Err())
}

func Test_Provider_Keys(t *testing.T) {
	p, err := Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	p.Set("a", 1)
	p.Set("b", "two")
	p.Set("c", map[string]any{"nested": true})

	assert.ElementsMatch(t, []string{"a", "b", "c"}, p.Keys())
}

func Test_Provider_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.db")

	p, err := Open(path, nil)
	require.NoError(t, err)
	p.Set("p:1:theme", "dark")
	p.Set("p:1::enabled", false)
	require.NoError(t, p.Close())

	reopened, err := Open(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	assert.Equal(t, "dark", reopened.Get("p:1:theme", nil))
	assert.Equal(t, false, reopened.Get("p:1::enabled", true))
}

func Test_Provider_JSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.db")

	p, err := Open(path, nil)
	require.NoError(t, err)
	p.Set("k", map[string]any{"list": []any{1.0, 2.0}, "flag": true})
	require.NoError(t, p.Close())

	reopened, err := Open(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	assert.Equal(t,
		map[string]any{"list": []any{1.0, 2.0}, "flag": true},
		reopened.Get("k", nil))
}
