package driver

import (
	"flag"
	"fmt"

	"cc11/internal/target/stdver"
)

// Config is the parsed CLI surface of §6, built with the standard flag
// package — the teacher lineage (cmd/asm/internal/flags,
// cmd/go/internal/cfg) never reaches for a third-party CLI framework,
// and cc11 follows that.
type Config struct {
	Sources []string

	PreprocessOnly bool // -E
	AssemblyOnly   bool // -S
	ObjectOnly     bool // -c

	Output string // -o

	Target string // -target
	Arch   string // -arch

	UserIncludes   []string // -I
	SystemIncludes []string // -isystem
	SysrootPath    string   // -isysroot

	Defines []string // -D name[=value]

	Std     string // -std=cNN
	Werror  bool
	NoWarn  bool // -w
	DiagSink string // -fdiagnostics-sink=
	LogDest  string // -flog=
	OptLevel int    // -O{0,1,2,3}

	LSP    bool
	Interp bool
	Version bool

	Jobs int // parallel multi-source compilation width, SPEC_FULL supplement

	KeepGoing bool // process subsequent sources after a failure (default: fail-fast, §7)
}

type stringList struct{ vals *[]string }

func (s stringList) String() string { return "" }
func (s stringList) Set(v string) error {
	*s.vals = append(*s.vals, v)
	return nil
}

// ParseArgs parses args (as in os.Args[1:]) into a Config.
func ParseArgs(args []string) (*Config, error) {
	fs := flag.NewFlagSet("cc11", flag.ContinueOnError)
	cfg := &Config{OptLevel: 0, Std: "", Jobs: 1}

	fs.BoolVar(&cfg.PreprocessOnly, "E", false, "preprocess only")
	fs.BoolVar(&cfg.AssemblyOnly, "S", false, "emit assembly")
	fs.BoolVar(&cfg.ObjectOnly, "c", false, "emit object file")
	fs.StringVar(&cfg.Output, "o", "", "output path")
	fs.StringVar(&cfg.Target, "target", "", "target triple")
	fs.StringVar(&cfg.Arch, "arch", "", "target architecture")
	fs.Var(stringList{&cfg.UserIncludes}, "I", "user include directory")
	fs.Var(stringList{&cfg.SystemIncludes}, "isystem", "system include directory")
	fs.StringVar(&cfg.SysrootPath, "isysroot", "", "SDK root")
	fs.Var(stringList{&cfg.Defines}, "D", "preprocessor define")
	fs.StringVar(&cfg.Std, "std", stdver.Default, "C standard")
	fs.BoolVar(&cfg.Werror, "Werror", false, "warnings as errors")
	fs.BoolVar(&cfg.NoWarn, "w", false, "inhibit warnings")
	fs.StringVar(&cfg.DiagSink, "fdiagnostics-sink", "", "diagnostics destination")
	fs.StringVar(&cfg.LogDest, "flog", "", "profiling log destination")
	fs.BoolVar(&cfg.LSP, "lsp", false, "run the LSP driver")
	fs.BoolVar(&cfg.Interp, "interp", false, "run the interpreter driver")
	fs.BoolVar(&cfg.Version, "version", false, "print version and exit")
	fs.IntVar(&cfg.Jobs, "j", 1, "parallel compilation width")

	for _, o := range []string{"O0", "O1", "O2", "O3"} {
		o := o
		fs.BoolVar(new(bool), o, false, "optimisation level "+o[1:])
	}

	// -Onn is parsed by hand below since flag does not support
	// "-O3"-shaped boolean-valued numeric suffixes cleanly.
	var filtered []string
	for _, a := range args {
		switch {
		case len(a) == 3 && a[0] == '-' && a[1] == 'O' && a[2] >= '0' && a[2] <= '3':
			cfg.OptLevel = int(a[2] - '0')
		default:
			filtered = append(filtered, a)
		}
	}

	if err := fs.Parse(filtered); err != nil {
		return nil, err
	}
	cfg.Sources = fs.Args()

	if cfg.Target != "" && cfg.Arch != "" {
		return nil, fmt.Errorf("-target and -arch are mutually exclusive")
	}
	if _, err := stdver.Parse(cfg.Std); err != nil {
		return nil, fmt.Errorf("-std: %w", err)
	}
	return cfg, nil
}
