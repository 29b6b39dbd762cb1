// Package preflight provides startup validation checks.
package preflight

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/randomizedcoder/go-disc-burn/internal/media"
	"github.com/randomizedcoder/go-disc-burn/internal/stats"
)

// Check represents the result of a single preflight check.
type Check struct {
	Name     string // Name of the check
	Required int64  // Required bytes (if applicable)
	Actual   int64  // Actual bytes found
	Passed   bool   // Whether the check passed
	Warning  bool   // True if it's a warning (non-fatal)
	Message  string // Additional context
}

// Result holds the results of all preflight checks.
type Result struct {
	Checks []Check
	Passed bool
}

// String returns a human-readable summary of the check.
func (c Check) String() string {
	status := "✓"
	if !c.Passed {
		status = "✗"
	} else if c.Warning {
		status = "⚠"
	}

	if c.Required > 0 {
		return fmt.Sprintf("  %s %s: %s available (need %s)", status, c.Name,
			stats.FormatBytes(c.Actual), stats.FormatBytes(c.Required))
	}
	return fmt.Sprintf("  %s %s: %s", status, c.Name, c.Message)
}

// Tool is an external binary the session is going to run.
type Tool struct {
	Name string
	Path string
}

// Options selects which checks RunAll performs.
type Options struct {
	// Tools must all resolve.
	Tools []Tool

	// CacheDir is where images are written. Empty skips the cache and
	// free-space checks.
	CacheDir string

	// SourceSize is the size of the folder to master. 0 skips the free-space
	// and capacity checks.
	SourceSize int64

	// Media is the inserted media kind. Empty skips the capacity check.
	Media media.Type
}

// RunAll executes every check selected by opts.
func RunAll(opts Options) *Result {
	result := &Result{
		Checks: make([]Check, 0, len(opts.Tools)+3),
		Passed: true,
	}
	add := func(c Check) {
		result.Checks = append(result.Checks, c)
		if !c.Passed {
			result.Passed = false
		}
	}

	for _, tool := range opts.Tools {
		add(checkTool(tool))
	}

	if opts.CacheDir != "" {
		cacheCheck := checkCacheDir(opts.CacheDir)
		add(cacheCheck)
		if cacheCheck.Passed && opts.SourceSize > 0 {
			add(checkFreeSpace(opts.CacheDir, opts.SourceSize))
		}
	}

	// capacity is only a warning: the recorder has the final word
	if opts.SourceSize > 0 && opts.Media != "" {
		add(checkMediaCapacity(opts.SourceSize, opts.Media))
	}

	return result
}

// checkTool verifies the binary resolves on PATH (or as given).
func checkTool(tool Tool) Check {
	resolved, err := exec.LookPath(tool.Path)
	if err != nil {
		return Check{
			Name:    tool.Name,
			Passed:  false,
			Message: fmt.Sprintf("not found at %s: %v", tool.Path, err),
		}
	}
	return Check{
		Name:    tool.Name,
		Passed:  true,
		Message: "found at " + resolved,
	}
}

// checkCacheDir verifies the cache directory exists and accepts new files.
func checkCacheDir(dir string) Check {
	info, err := os.Stat(dir)
	if err != nil {
		return Check{Name: "cache_dir", Message: err.Error()}
	}
	if !info.IsDir() {
		return Check{Name: "cache_dir", Message: dir + " is not a directory"}
	}

	f, err := os.CreateTemp(dir, ".preflight-*")
	if err != nil {
		return Check{Name: "cache_dir", Message: fmt.Sprintf("%s is not writable: %v", dir, err)}
	}
	name := f.Name()
	f.Close()
	os.Remove(name)

	return Check{Name: "cache_dir", Passed: true, Message: dir + " is writable"}
}

// checkFreeSpace verifies the cache filesystem can hold the image.
func checkFreeSpace(dir string, need int64) Check {
	avail, err := freeSpace(dir)
	if err != nil {
		return Check{
			Name:    "free_space",
			Passed:  true,
			Warning: true,
			Message: fmt.Sprintf("unable to check: %v", err),
		}
	}
	return Check{
		Name:     "free_space",
		Required: need,
		Actual:   avail,
		Passed:   avail >= need,
	}
}

// checkMediaCapacity warns when the payload exceeds the nominal capacity.
func checkMediaCapacity(size int64, t media.Type) Check {
	capacity := t.Capacity()
	if capacity == 0 {
		return Check{
			Name:    "media_capacity",
			Passed:  true,
			Warning: true,
			Message: fmt.Sprintf("unknown media type %q", t),
		}
	}
	return Check{
		Name:    "media_capacity",
		Passed:  true,
		Warning: size > capacity,
		Message: fmt.Sprintf("%s of %s on %s", stats.FormatBytes(size), stats.FormatBytes(capacity), t),
	}
}

var errFreeSpaceUnsupported = errors.New("free space check not supported on this platform")

// PrintResults writes the check results to w.
func PrintResults(w io.Writer, result *Result) {
	fmt.Fprintln(w, "Preflight checks:")
	for _, check := range result.Checks {
		fmt.Fprintln(w, check.String())
		if !check.Passed {
			fmt.Fprintf(w, "    Fix: %s\n", suggestFix(check.Name))
		}
	}
	fmt.Fprintln(w)
}

// suggestFix returns a suggestion for fixing a failed check.
func suggestFix(name string) string {
	switch name {
	case "mkisofs", "isoinfo":
		return "install genisoimage or cdrtools, or pass -mkisofs / -isoinfo"
	case "cdrecord":
		return "install wodim or cdrtools, or pass -cdrecord"
	case "cache_dir":
		return "create the directory or pass -cache-dir"
	case "free_space":
		return "free some space or point -cache-dir at a larger filesystem"
	default:
		return "see documentation"
	}
}
