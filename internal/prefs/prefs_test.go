package prefs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	_, err = s.GetString(KeyDensityTier)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "medium", s.StringWithFallback(KeyDensityTier, "medium"))

	require.NoError(t, s.SetString(KeyDensityTier, "large"))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()
	v, err := s.GetString(KeyDensityTier)
	require.NoError(t, err)
	assert.Equal(t, "large", v)
}

func TestInts(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, 3, s.IntWithFallback(KeyOverscan, 3))
	require.NoError(t, s.SetInt(KeyOverscan, 5))
	n, err := s.GetInt(KeyOverscan)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	require.NoError(t, s.SetString(KeyOverscan, "many"))
	_, err = s.GetInt(KeyOverscan)
	assert.Error(t, err)
	assert.Equal(t, 3, s.IntWithFallback(KeyOverscan, 3))
}

func TestDeleteAndAll(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SetString(KeyLastDirectory, "/photos"))
	require.NoError(t, s.SetString(KeyDensityTier, "small"))
	all, err := s.All()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{KeyLastDirectory: "/photos", KeyDensityTier: "small"}, all)

	require.NoError(t, s.Delete(KeyLastDirectory))
	_, err = s.GetString(KeyLastDirectory)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, s.SetString("", "x"))
}
