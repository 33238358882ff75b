package git

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseGitVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want gitVersion
		ok   bool
	}{
		{"", gitVersion{}, false},
		{"git version 2.44.0\n", gitVersion{2, 44, 0}, true},
		{"git version 2.39.3 (Apple Git-146)\n", gitVersion{2, 39, 3}, true},
		{"git version 2.39.3.windows.1\n", gitVersion{2, 39, 3}, true},
		{"git version 2.42\n", gitVersion{2, 42, 0}, true},
		{"git version not-a-version\n", gitVersion{}, false},
	}
	for _, tt := range tests {
		got, ok := parseGitVersion(tt.in)
		require.Equal(t, tt.ok, ok, tt.in)
		require.Equal(t, tt.want, got, tt.in)
	}
}

func TestCheckFetchVersion(t *testing.T) {
	t.Parallel()

	require.NoError(t, checkFetchVersion("git version 2.18.0\n"))
	require.NoError(t, checkFetchVersion("git version 3.0.0\n"))

	err := checkFetchVersion("git version 2.17.9\n")
	require.ErrorIs(t, err, ErrRepo)
	require.ErrorContains(t, err, "need 2.18.0 or newer")

	require.ErrorContains(t, checkFetchVersion("hg 6.1"), "unrecognised git version")
	require.Equal(t, "2.18.0", minFetchVersion.String())
}
