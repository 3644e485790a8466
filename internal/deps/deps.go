// Package deps checks for the external binaries jofsarpur runs.
package deps

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Requirement defines an external dependency jofsarpur relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	// Path is the resolved executable when Available.
	Path   string
	Detail string
}

// CheckBinaries evaluates the provided requirements and reports availability.
// Commands containing a path separator are checked in place; bare names are
// looked up on PATH.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = describeLookupError(cmd, err)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = resolved
		results = append(results, status)
	}
	return results
}

func describeLookupError(cmd string, err error) string {
	if !strings.ContainsRune(cmd, os.PathSeparator) {
		return fmt.Sprintf("binary %q not found on PATH", cmd)
	}
	info, statErr := os.Stat(cmd)
	switch {
	case statErr != nil:
		return fmt.Sprintf("binary %q does not exist", cmd)
	case info.IsDir():
		return fmt.Sprintf("%q is a directory", cmd)
	case info.Mode().Perm()&0o111 == 0:
		return fmt.Sprintf("%q is not executable", cmd)
	default:
		return fmt.Sprintf("binary %q unusable: %v", cmd, err)
	}
}

// Missing returns the required dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}
