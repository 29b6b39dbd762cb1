package process

import (
	"reflect"
	"testing"
)

// =============================================================================
// Table-Driven Tests: command builders
// =============================================================================

func TestMasteringConfig_Command(t *testing.T) {
	cfg := &MasteringConfig{
		Label:     "HOLIDAY_2025",
		Mode:      "-dvd-video",
		ImagePath: "/var/cache/burn/dvd.iso",
		SourceDir: "/home/user/dvd",
	}

	want := []string{
		"mkisofs", "-V", "HOLIDAY_2025", "-dvd-video",
		"-o", "/var/cache/burn/dvd.iso", "/home/user/dvd",
	}
	if got := cfg.Command().Args(); !reflect.DeepEqual(got, want) {
		t.Errorf("Args() = %q, want %q", got, want)
	}
}

func TestMasteringConfig_CustomBinary(t *testing.T) {
	cfg := &MasteringConfig{BinaryPath: "genisoimage", Mode: "-dvd-audio"}
	if got := cfg.Command().Name(); got != "genisoimage" {
		t.Errorf("Name() = %q, want genisoimage", got)
	}
}

func TestRecordingConfig_Command(t *testing.T) {
	tail := []string{"fs=16m", "dev=1,0,0", "-v", "-gracetime=2", "-pad", "padsize=63s", "/tmp/disc.iso"}

	tests := []struct {
		name string
		cfg  RecordingConfig
		head []string
	}{
		{
			name: "minimal",
			cfg:  RecordingConfig{Mode: "-sao", Device: "1,0,0", ImagePath: "/tmp/disc.iso"},
			head: []string{"cdrecord", "-sao"},
		},
		{
			name: "simulation",
			cfg:  RecordingConfig{Simulation: true, Mode: "-sao", Device: "1,0,0", ImagePath: "/tmp/disc.iso"},
			head: []string{"cdrecord", "-dummy", "-sao"},
		},
		{
			name: "all options",
			cfg: RecordingConfig{
				BinaryPath: "wodim",
				Simulation: true,
				Eject:      true,
				Speed:      "speed=8",
				Mode:       "-tao",
				Device:     "1,0,0",
				ImagePath:  "/tmp/disc.iso",
			},
			head: []string{"wodim", "-dummy", "-eject", "speed=8", "-tao"},
		},
		{
			name: "eject only",
			cfg:  RecordingConfig{Eject: true, Mode: "-dao", Device: "1,0,0", ImagePath: "/tmp/disc.iso"},
			head: []string{"cdrecord", "-eject", "-dao"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := append(append([]string{}, tt.head...), tail...)
			if got := tt.cfg.Command().Args(); !reflect.DeepEqual(got, want) {
				t.Errorf("Args() = %q, want %q", got, want)
			}
		})
	}
}

func TestInspectionConfig_Command(t *testing.T) {
	cfg := &InspectionConfig{ImagePath: "/tmp/disc.iso"}
	want := []string{"isoinfo", "-d", "-i", "/tmp/disc.iso"}
	if got := cfg.Command().Args(); !reflect.DeepEqual(got, want) {
		t.Errorf("Args() = %q, want %q", got, want)
	}
}

func TestCommandString(t *testing.T) {
	cfg := &InspectionConfig{ImagePath: "/tmp/disc.iso"}
	if got, want := cfg.CommandString(), "isoinfo -d -i /tmp/disc.iso"; got != want {
		t.Errorf("CommandString() = %q, want %q", got, want)
	}
}

func TestBuilders_RunnerIsUnstarted(t *testing.T) {
	r := (&InspectionConfig{ImagePath: "/tmp/disc.iso"}).Runner(nil)
	if r.Command().Frozen() {
		t.Error("runner command should not be frozen before Run")
	}
	_, lines, pid := r.Stats()
	if lines != 0 || pid != 0 {
		t.Errorf("Stats() = lines %d pid %d, want zeros", lines, pid)
	}
}

// =============================================================================
// Tests: CommandSpec
// =============================================================================

func TestCommandSpec_FreezeIgnoresLaterTokens(t *testing.T) {
	c := NewCommand("tool").AddArgument("a")
	frozen := c.freeze()
	c.AddArgument("b")

	if !reflect.DeepEqual(frozen, []string{"tool", "a"}) {
		t.Errorf("freeze() = %q", frozen)
	}
	if !reflect.DeepEqual(c.Args(), []string{"tool", "a"}) {
		t.Errorf("Args() after freeze = %q", c.Args())
	}
	if !c.Frozen() {
		t.Error("Frozen() = false after freeze")
	}
}

func TestCommandSpec_ArgsIsCopy(t *testing.T) {
	c := NewCommand("tool").AddArgument("a")
	args := c.Args()
	args[1] = "mutated"
	if c.Args()[1] != "a" {
		t.Error("Args() exposed internal slice")
	}
}

func TestCommandSpec_Empty(t *testing.T) {
	c := NewCommand("")
	if c.Name() != "" || len(c.Args()) != 0 {
		t.Errorf("empty spec = %q", c.Args())
	}
}

// =============================================================================
// Tests: exit codes
// =============================================================================

func TestExitCode_Nil(t *testing.T) {
	if got := ExitCode(nil); got != 0 {
		t.Errorf("ExitCode(nil) = %d, want 0", got)
	}
}

func TestExitCodeLabel(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{ExitCodeSpawnFailure, "(not started)"},
		{0, "(clean)"},
		{1, "(error)"},
		{127, "(not found)"},
		{143, "(SIGTERM)"},
		{7, ""},
	}
	for _, tt := range tests {
		if got := ExitCodeLabel(tt.code); got != tt.want {
			t.Errorf("ExitCodeLabel(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
