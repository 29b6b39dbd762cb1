package preflight

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/randomizedcoder/go-disc-burn/internal/media"
)

func TestCheck_String(t *testing.T) {
	tests := []struct {
		name  string
		check Check
		want  []string
	}{
		{
			name:  "passed_with_required",
			check: Check{Name: "free_space", Required: 1_000, Actual: 2_000_000, Passed: true},
			want:  []string{"✓", "free_space", "2.00 MB available", "need 1.00 KB"},
		},
		{
			name:  "failed",
			check: Check{Name: "cdrecord", Passed: false, Message: "not found"},
			want:  []string{"✗", "cdrecord: not found"},
		},
		{
			name:  "warning",
			check: Check{Name: "media_capacity", Passed: true, Warning: true, Message: "too big"},
			want:  []string{"⚠", "too big"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.check.String()
			for _, w := range tt.want {
				if !strings.Contains(s, w) {
					t.Errorf("String() = %q, missing %q", s, w)
				}
			}
		})
	}
}

func TestCheckTool(t *testing.T) {
	if c := checkTool(Tool{Name: "sh", Path: "sh"}); !c.Passed || !strings.Contains(c.Message, "found at") {
		t.Errorf("checkTool(sh) = %+v", c)
	}
	if c := checkTool(Tool{Name: "mkisofs", Path: "/nonexistent/mkisofs"}); c.Passed {
		t.Errorf("checkTool(missing) passed: %+v", c)
	}
}

func TestCheckCacheDir(t *testing.T) {
	dir := t.TempDir()

	c := checkCacheDir(dir)
	if !c.Passed {
		t.Fatalf("checkCacheDir(tempdir) = %+v", c)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Error("write test file left behind")
	}

	if c := checkCacheDir(filepath.Join(dir, "missing")); c.Passed {
		t.Error("missing cache dir passed")
	}

	file := filepath.Join(dir, "file")
	os.WriteFile(file, nil, 0o644)
	if c := checkCacheDir(file); c.Passed {
		t.Error("regular file passed as cache dir")
	}
}

func TestCheckCacheDir_ReadOnly(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	dir := t.TempDir()
	if err := os.Chmod(dir, 0o555); err != nil {
		t.Fatal(err)
	}
	defer os.Chmod(dir, 0o755)

	if c := checkCacheDir(dir); c.Passed {
		t.Error("read-only cache dir passed")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()

	if c := checkFreeSpace(dir, 1); !c.Passed || c.Actual <= 0 {
		t.Errorf("checkFreeSpace(1 byte) = %+v", c)
	}
	if c := checkFreeSpace(dir, 1<<62); c.Passed {
		t.Errorf("checkFreeSpace(4 EiB) passed: %+v", c)
	}
}

func TestCheckMediaCapacity(t *testing.T) {
	tests := []struct {
		name    string
		size    int64
		media   media.Type
		warning bool
	}{
		{"fits dvd", 4_000_000_000, media.DVD, false},
		{"too big for cd", 800_000_000, media.CD, true},
		{"unknown media", 1, media.Type("tape"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := checkMediaCapacity(tt.size, tt.media)
			if !c.Passed {
				t.Error("capacity check must never fail")
			}
			if c.Warning != tt.warning {
				t.Errorf("Warning = %v, want %v", c.Warning, tt.warning)
			}
		})
	}
}

func TestRunAll(t *testing.T) {
	dir := t.TempDir()

	result := RunAll(Options{
		Tools:      []Tool{{Name: "sh", Path: "sh"}},
		CacheDir:   dir,
		SourceSize: 1024,
		Media:      media.CD,
	})
	if !result.Passed {
		t.Errorf("RunAll() failed: %+v", result.Checks)
	}

	names := make([]string, 0, len(result.Checks))
	for _, c := range result.Checks {
		names = append(names, c.Name)
	}
	if got := strings.Join(names, ","); got != "sh,cache_dir,free_space,media_capacity" {
		t.Errorf("checks = %s", got)
	}
}

func TestRunAll_MissingTool(t *testing.T) {
	result := RunAll(Options{
		Tools: []Tool{
			{Name: "sh", Path: "sh"},
			{Name: "cdrecord", Path: "/nonexistent/cdrecord"},
		},
	})
	if result.Passed {
		t.Error("RunAll() passed with a missing tool")
	}
	if len(result.Checks) != 2 {
		t.Errorf("checks = %d, want 2", len(result.Checks))
	}
}

func TestRunAll_CapacityOnlyWarns(t *testing.T) {
	result := RunAll(Options{SourceSize: 1 << 40, Media: media.CD})
	if !result.Passed {
		t.Error("capacity warning must not fail preflight")
	}
}

func TestSuggestFix(t *testing.T) {
	for _, name := range []string{"mkisofs", "isoinfo", "cdrecord", "cache_dir", "free_space", "other"} {
		if suggestFix(name) == "" {
			t.Errorf("suggestFix(%q) is empty", name)
		}
	}
}

func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer
	PrintResults(&buf, &Result{
		Checks: []Check{
			{Name: "mkisofs", Passed: true, Message: "found at /usr/bin/mkisofs"},
			{Name: "cdrecord", Passed: false, Message: "not found"},
		},
	})

	out := buf.String()
	if !strings.HasPrefix(out, "Preflight checks:\n") {
		t.Errorf("missing header: %q", out)
	}
	if strings.Count(out, "Fix:") != 1 || !strings.Contains(out, "install wodim") {
		t.Errorf("fix hints wrong:\n%s", out)
	}
}
