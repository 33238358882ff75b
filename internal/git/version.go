package git

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// Fetching commits by object id needs protocol v2, default since 2.18.
var minFetchVersion = gitVersion{2, 18, 0}

// gitVersion is major, minor, patch.
type gitVersion [3]int

func (v gitVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v[0], v[1], v[2])
}

// versionPattern accepts vendor decorations such as "2.39.3.windows.1" or
// "2.39.3 (Apple Git-146)".
var versionPattern = regexp.MustCompile(`git version (\d+)\.(\d+)(?:\.(\d+))?`)

func parseGitVersion(out string) (gitVersion, bool) {
	m := versionPattern.FindStringSubmatch(out)
	if m == nil {
		return gitVersion{}, false
	}
	var v gitVersion
	for i, part := range m[1:] {
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return gitVersion{}, false
		}
		v[i] = n
	}
	return v, true
}

func checkFetchVersion(out string) error {
	v, ok := parseGitVersion(out)
	if !ok {
		return fmt.Errorf("%w: unrecognised git version %q", ErrRepo, strings.TrimSpace(out))
	}
	if slices.Compare(v[:], minFetchVersion[:]) < 0 {
		return fmt.Errorf("%w: git %s cannot fetch by commit id, need %s or newer", ErrRepo, v, minFetchVersion)
	}
	return nil
}

var gitVersionCheck = sync.OnceValue(func() error {
	out, err := exec.CommandContext(context.Background(), "git", "--version").Output()
	if err != nil {
		return fmt.Errorf("%w: git --version: %w", ErrRepo, err)
	}
	return checkFetchVersion(string(out))
})

// ensureMinGitVersion checks the installed git binary once per process.
func ensureMinGitVersion() error {
	return gitVersionCheck()
}
