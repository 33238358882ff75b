package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// runGitCommand runs the git binary inside the repository root and returns
// its stdout. It is only used by the CLI fetch backend.
func (s *Service) runGitCommand(ctx context.Context, args []string, what string) (string, error) {
	if s.path == "" {
		return "", fmt.Errorf("%w: repository root not set", ErrRepo)
	}
	cmdArgs := append([]string{"-C", s.path}, args...)
	cmd := exec.CommandContext(ctx, "git", cmdArgs...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return "", fmt.Errorf("%s: %v: %s", what, err, strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("%s: %w", what, err)
	}
	return stdout.String(), nil
}
