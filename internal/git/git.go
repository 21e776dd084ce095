package git

import (
	"fmt"
	"os/exec"
	"strings"
)

// OutputStatus contains git status information for decrypted files
type OutputStatus struct {
	IsRepo    bool
	Tracked   []string // Files tracked by git (bad)
	Ignored   []string // Files in .gitignore (good)
	Unignored []string // Files neither tracked nor ignored (warning)
}

// IsGitRepo checks if the working directory is inside a git repository
func IsGitRepo(workDir string) bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = workDir
	err := cmd.Run()
	return err == nil
}

// IsTracked checks if a file is tracked by git
func IsTracked(workDir, path string) bool {
	cmd := exec.Command("git", "ls-files", "--", path)
	cmd.Dir = workDir
	output, err := cmd.Output()

	if err != nil {
		return false
	}

	return len(strings.TrimSpace(string(output))) > 0
}

// IsIgnored checks if a file is ignored by git (handles all .gitignore files)
func IsIgnored(workDir, path string) bool {
	cmd := exec.Command("git", "check-ignore", "-q", "--", path)
	cmd.Dir = workDir
	err := cmd.Run()

	// git check-ignore returns exit code 0 if file is ignored
	return err == nil
}

// CheckOutput inspects files written into workDir. Paths are relative to
// workDir.
func CheckOutput(workDir string, files []string) *OutputStatus {
	status := &OutputStatus{}

	if !IsGitRepo(workDir) {
		return status
	}
	status.IsRepo = true

	for _, file := range files {
		switch {
		case IsTracked(workDir, file):
			status.Tracked = append(status.Tracked, file)
		case IsIgnored(workDir, file):
			status.Ignored = append(status.Ignored, file)
		default:
			status.Unignored = append(status.Unignored, file)
		}
	}

	return status
}

// FormatWarnings renders the problems found by CheckOutput. It returns an
// empty string when there is nothing to warn about.
func FormatWarnings(status *OutputStatus) string {
	if !status.IsRepo || (len(status.Tracked) == 0 && len(status.Unignored) == 0) {
		return ""
	}

	var result strings.Builder
	for _, file := range status.Tracked {
		result.WriteString(fmt.Sprintf("warning: %s is tracked by git (run: git rm --cached %s)\n", file, file))
	}
	for _, file := range status.Unignored {
		result.WriteString(fmt.Sprintf("warning: %s is not in .gitignore (add it before committing)\n", file))
	}
	return result.String()
}
