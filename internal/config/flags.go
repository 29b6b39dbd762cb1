package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// ParseFlags parses os.Args and returns a Config.
func ParseFlags() (*Config, error) {
	return ParseArgs(os.Args[1:], os.Stderr)
}

// ParseArgs parses args into a Config. A session file named by -config is
// applied first, so explicit flags override its values. Usage and parse
// errors are written to out.
func ParseArgs(args []string, out io.Writer) (*Config, error) {
	cfg := DefaultConfig()

	if path := findConfigArg(args); path != "" {
		if err := LoadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	fs := flag.NewFlagSet("go-disc-burn", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() { printUsage(fs, out) }

	// Session file
	fs.StringVar(&cfg.ConfigFile, "config", "", "Load settings from a YAML session file")
	fs.StringVar(&cfg.SaveConfig, "save-config", "", "Write the effective settings to a YAML session file")

	// Tools
	fs.StringVar(&cfg.MkisofsPath, "mkisofs", cfg.MkisofsPath, "Path to the ISO mastering tool")
	fs.StringVar(&cfg.CdrecordPath, "cdrecord", cfg.CdrecordPath, "Path to the disc recording tool")
	fs.StringVar(&cfg.IsoinfoPath, "isoinfo", cfg.IsoinfoPath, "Path to the image inspection tool")

	// Disc
	fs.StringVar(&cfg.Label, "label", cfg.Label, "Volume label (default: source folder name)")
	fs.StringVar(&cfg.Device, "device", cfg.Device, `Recorder device, e.g. "/dev/sr0" or "1,0,0"`)
	fs.StringVar(&cfg.Media, "media", cfg.Media, `Inserted media: "cd", "dvd", "dvd-dl", "bd"`)
	fs.IntVar(&cfg.Speed, "speed", cfg.Speed, "Write speed multiplier (0 = drive default)")
	fs.StringVar(&cfg.WriteMode, "write-mode", cfg.WriteMode, `Write mode: "-sao", "-tao", "-dao", "-raw96r"`)
	fs.BoolVar(&cfg.Simulation, "simulate", cfg.Simulation, "Simulate the burn with the laser off")
	fs.BoolVar(&cfg.Eject, "eject", cfg.Eject, "Eject the disc when done")

	// Image cache
	fs.StringVar(&cfg.CacheDir, "cache-dir", cfg.CacheDir, "Directory for built images")
	fs.StringVar(&cfg.ImageName, "image-name", cfg.ImageName, "File name of the built image inside -cache-dir")

	// Safety & Diagnostics
	fs.BoolVar(&cfg.PrintCmd, "print-cmd", cfg.PrintCmd, "Print the tool commands and exit")
	fs.BoolVar(&cfg.SkipPreflight, "skip-preflight", cfg.SkipPreflight, "Skip preflight checks")

	// Observability
	fs.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, `Prometheus metrics address ("" disables)`)
	fs.StringVar(&cfg.MetricsTextfile, "metrics-textfile", cfg.MetricsTextfile, "Write final metrics to this file for the node_exporter textfile collector")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Verbose logging (includes every tool line)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, `Log format: "json" or "text"`)
	fs.BoolVar(&cfg.TUIEnabled, "tui", cfg.TUIEnabled, "Show the live terminal dashboard")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	rest := fs.Args()
	if len(rest) >= 1 {
		cfg.Command = rest[0]
	}
	if len(rest) >= 2 {
		cfg.Target = rest[1]
	}
	if len(rest) > 2 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(rest[2:], " "))
	}

	return cfg, nil
}

// findConfigArg returns the value of -config / --config without parsing
// anything else.
func findConfigArg(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			return ""
		}
		name := strings.TrimLeft(a, "-")
		if name == a {
			continue
		}
		if v, ok := strings.CutPrefix(name, "config="); ok {
			return v
		}
		if name == "config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func printUsage(fs *flag.FlagSet, out io.Writer) {
	fmt.Fprintf(out, `go-disc-burn - master, burn and inspect optical discs with cdrtools

Usage:
  go-disc-burn [flags] <command> <path>

Commands:
  build   <dir>     Master a DVD folder tree into an image in -cache-dir
  burn    <image>   Record an existing image
  dvd     <dir>     Build, then burn the result
  inspect <image>   Show the primary volume descriptor of an image

Disc:
`)
	printFlagCategory(fs, out, []string{"label", "device", "media", "speed", "write-mode", "simulate", "eject"})

	fmt.Fprintf(out, "\nImage Cache:\n")
	printFlagCategory(fs, out, []string{"cache-dir", "image-name"})

	fmt.Fprintf(out, "\nTools:\n")
	printFlagCategory(fs, out, []string{"mkisofs", "cdrecord", "isoinfo"})

	fmt.Fprintf(out, "\nSession File:\n")
	printFlagCategory(fs, out, []string{"config", "save-config"})

	fmt.Fprintf(out, "\nSafety & Diagnostics:\n")
	printFlagCategory(fs, out, []string{"print-cmd", "skip-preflight"})

	fmt.Fprintf(out, "\nObservability:\n")
	printFlagCategory(fs, out, []string{"metrics", "metrics-textfile", "v", "log-format", "tui"})

	fmt.Fprintf(out, `
Examples:
  # Check what would run
  go-disc-burn -print-cmd dvd ~/Videos/HOLIDAY

  # Dry run on the second drive with the dashboard
  go-disc-burn -simulate -device 1,0,0 -tui dvd ~/Videos/HOLIDAY

  # Burn an existing image at 8x and keep the settings
  go-disc-burn -speed 8 -save-config ~/.config/go-disc-burn.yaml burn disc.iso

`)
}

// printFlagCategory prints flags matching the given names (helper for usage).
func printFlagCategory(fs *flag.FlagSet, out io.Writer, names []string) {
	for _, name := range names {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		typ, usage := flag.UnquoteUsage(f)
		fmt.Fprintf(out, "  -%s %s\n    \t%s", f.Name, typ, usage)
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" {
			fmt.Fprintf(out, " (default %s)", f.DefValue)
		}
		fmt.Fprintln(out)
	}
}
