package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/milam/VodParser/internal/deps"
	"github.com/milam/VodParser/internal/templates"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckTemplates verifies that the template directory holds a readable
// catalogue and both phase banners.
func CheckTemplates(dir string) Result {
	const name = "Templates"

	if err := unix.Access(dir, unix.R_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", dir, err)}
	}
	cat, err := templates.Load(dir, nil)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	detail := fmt.Sprintf("%d templates", len(cat.Entries))
	if len(cat.Missing) > 0 {
		detail += fmt.Sprintf(", %d missing images", len(cat.Missing))
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// FromDependency converts a binary status into a preflight result.
func FromDependency(status deps.Status) Result {
	res := Result{Name: status.Name, Passed: status.Available, Optional: status.Optional}
	switch {
	case !status.Available:
		res.Detail = status.Detail
	case status.Version != "":
		res.Detail = status.Version
	default:
		res.Detail = status.Command
	}
	return res
}
