package support

import (
	"os/exec"
	"strings"
)

// GitShortSHA returns the short commit hash of the workspace HEAD, or ""
// when git or the repository is unavailable.
func GitShortSHA(workspace string) string {
	cmd := exec.Command("git", "-C", workspace, "rev-parse", "--short", "HEAD")
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
