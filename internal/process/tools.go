package process

import (
	"log/slog"
)

// Default tool binaries. All are resolved through PATH.
const (
	DefaultMkisofsPath  = "mkisofs"
	DefaultCdrecordPath = "cdrecord"
	DefaultIsoinfoPath  = "isoinfo"
)

// MasteringConfig holds the inputs of an ISO-mastering run.
type MasteringConfig struct {
	// BinaryPath is the mastering tool (mkisofs or a compatible genisoimage).
	BinaryPath string

	// Label is the volume label written with -V.
	Label string

	// Mode is the DVD layout flag: -dvd-video, -dvd-audio or -dvd-hybrid.
	Mode string

	// ImagePath is the output image file.
	ImagePath string

	// SourceDir is the directory tree to master.
	SourceDir string
}

// Command builds:
//
//	mkisofs -V <label> <mode> -o <image> <source>
func (c *MasteringConfig) Command() *CommandSpec {
	return NewCommand(binaryOr(c.BinaryPath, DefaultMkisofsPath)).
		AddArgument("-V").
		AddArgument(c.Label).
		AddArgument(c.Mode).
		AddArgument("-o").
		AddArgument(c.ImagePath).
		AddArgument(c.SourceDir)
}

// Runner returns an unstarted runner for the mastering command.
func (c *MasteringConfig) Runner(logger *slog.Logger) *Runner {
	return NewRunnerFromSpec(c.Command(), logger)
}

// CommandString returns the command that would be executed (for debugging).
func (c *MasteringConfig) CommandString() string {
	return c.Command().String()
}

// RecordingConfig holds the inputs of a disc-recording run.
type RecordingConfig struct {
	// BinaryPath is the recording tool (cdrecord or wodim).
	BinaryPath string

	// Simulation adds -dummy: the laser stays off.
	Simulation bool

	// Eject adds -eject after recording.
	Eject bool

	// Speed is an optional speed token such as "speed=8". Empty means
	// let the drive decide.
	Speed string

	// Mode is the write-mode token, e.g. -sao, -tao, -dao.
	Mode string

	// Device is the drive identifier as understood by the recorder
	// (e.g. "1,0,0" or "/dev/sr0"). "dev=" is prepended.
	Device string

	// ImagePath is the image to record.
	ImagePath string
}

// Command builds:
//
//	cdrecord [-dummy] [-eject] [<speed>] <mode> fs=16m dev=<device> -v -gracetime=2 -pad padsize=63s <image>
func (c *RecordingConfig) Command() *CommandSpec {
	cmd := NewCommand(binaryOr(c.BinaryPath, DefaultCdrecordPath))

	if c.Simulation {
		cmd.AddArgument("-dummy")
	}
	if c.Eject {
		cmd.AddArgument("-eject")
	}
	if c.Speed != "" {
		cmd.AddArgument(c.Speed)
	}

	// -v is what makes the recorder print its progress lines
	return cmd.AddArgument(c.Mode).
		AddArgument("fs=16m").
		AddArgument("dev=" + c.Device).
		AddArgument("-v").
		AddArgument("-gracetime=2").
		AddArgument("-pad").
		AddArgument("padsize=63s").
		AddArgument(c.ImagePath)
}

// Runner returns an unstarted runner for the recording command.
func (c *RecordingConfig) Runner(logger *slog.Logger) *Runner {
	return NewRunnerFromSpec(c.Command(), logger)
}

// CommandString returns the command that would be executed (for debugging).
func (c *RecordingConfig) CommandString() string {
	return c.Command().String()
}

// InspectionConfig holds the inputs of an image-inspection run.
type InspectionConfig struct {
	// BinaryPath is the inspection tool (isoinfo).
	BinaryPath string

	// ImagePath is the image to inspect.
	ImagePath string
}

// Command builds:
//
//	isoinfo -d -i <image>
func (c *InspectionConfig) Command() *CommandSpec {
	return NewCommand(binaryOr(c.BinaryPath, DefaultIsoinfoPath)).
		AddArgument("-d").
		AddArgument("-i").
		AddArgument(c.ImagePath)
}

// Runner returns an unstarted runner for the inspection command.
func (c *InspectionConfig) Runner(logger *slog.Logger) *Runner {
	return NewRunnerFromSpec(c.Command(), logger)
}

// CommandString returns the command that would be executed (for debugging).
func (c *InspectionConfig) CommandString() string {
	return c.Command().String()
}

func binaryOr(path, def string) string {
	if path == "" {
		return def
	}
	return path
}
