//go:build unix

package mapped

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rawbytedev/memview"
)

func TestCreateFromMappedFile(t *testing.T) {
	vec := []int32{0, 1, 2, 3}
	raw, err := memview.PackValues(nil, vec[0], vec[1], vec[2], vec[3])
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "tmpfile")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	m, err := Open(path)
	require.NoError(t, err)
	defer m.Close()

	v := m.View(memview.Options{})
	require.Equal(t, 16, v.Size())
	span, err := memview.AsSpan[int32](v)
	require.NoError(t, err)
	require.Equal(t, vec, span.Values)
	require.Nil(t, span.Anchor)

	last, err := memview.As[int32](v.From(12))
	require.NoError(t, err)
	require.Equal(t, int32(3), last)
}

func TestEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	m, err := Open(path)
	require.NoError(t, err)
	v := m.View(memview.Options{})
	require.True(t, v.Empty())
	b, err := v.Bytes()
	require.NoError(t, err)
	require.Empty(t, b)
	require.NoError(t, m.Close())
}

func TestClosed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.WriteFile(path, []byte("abcd"), 0o600))

	m, err := Open(path)
	require.NoError(t, err)
	v := m.View(memview.Options{})
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	_, err = v.Bytes()
	require.ErrorIs(t, err, ErrClosed)
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
