package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_IncludeMode(t *testing.T) {
	f, err := New(Options{Include: []string{"^debian-l10n-", "^debian-user$"}})
	require.NoError(t, err)

	assert.True(t, f.Allows("debian-l10n-german"))
	assert.True(t, f.Allows("debian-user"))
	assert.False(t, f.Allows("debian-user-french"))
	assert.Equal(t, "include ^debian-l10n- ^debian-user$", f.String())
}

func TestFilter_ExcludeMode(t *testing.T) {
	f, err := New(Options{Exclude: []string{"-private$", " "}})
	require.NoError(t, err)

	assert.True(t, f.Allows("debian-devel"))
	assert.False(t, f.Allows("debian-private"))
	assert.Equal(t, "exclude -private$", f.String())
}

func TestFilter_NoPatterns(t *testing.T) {
	f, err := New(Options{Include: []string{"", "  "}})
	require.NoError(t, err)
	assert.Nil(t, f)
	assert.True(t, f.Allows("anything"))
	assert.Equal(t, "all lists", f.String())
}

func TestFilter_Errors(t *testing.T) {
	_, err := New(Options{Include: []string{"a"}, Exclude: []string{"b"}})
	assert.ErrorIs(t, err, ErrModeConflict)

	_, err = New(Options{Exclude: []string{"("}})
	assert.ErrorContains(t, err, "compile exclude pattern")
}
