package interp

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"cc11/internal/build"
	"cc11/internal/diag"
	"cc11/internal/driver"
	"cc11/internal/target"
)

// Run implements the interpreter driver named in §4.H: it builds IR for
// a single source the same way driver.Run does up through BuildUnit,
// then interprets main directly instead of handing the unit to codegen
// and the linker.
func Run(cfg *driver.Config, fe driver.Frontend) int {
	if len(cfg.Sources) != 1 {
		fmt.Fprintln(os.Stderr, "cc11: -interp requires exactly one source file")
		return driver.ExitFailure
	}
	source := cfg.Sources[0]

	td, err := target.Resolve(cfg.Arch, cfg.Target, runtime.GOOS)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cc11:", err)
		return driver.ExitFailure
	}

	data, err := readSource(source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cc11: cannot read %s: %v\n", source, err)
		return driver.ExitUnreadableSource
	}

	pre, err := fe.Preprocess(source, data, driver.PreprocessConfig{
		UserIncludes:   cfg.UserIncludes,
		SystemIncludes: cfg.SystemIncludes,
		SysrootPath:    cfg.SysrootPath,
		Defines:        cfg.Defines,
		Std:            cfg.Std,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "cc11: preprocessing %s: %v\n", source, err)
		return driver.ExitFailure
	}

	sink := diag.Sink(&diag.WriterSink{W: os.Stderr, Werror: cfg.Werror})
	if cfg.NoWarn {
		sink = diag.DiscardingSink{}
	}

	astUnit, err := fe.ParseAndCheck(source, pre, td, sink)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cc11: compiling %s: %v\n", source, err)
		return driver.ExitFailure
	}

	irUnit, err := build.BuildUnit(astUnit, td)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cc11: compiling %s: %v\n", source, err)
		return driver.ExitFailure
	}

	mainG := irUnit.Lookup("main")
	if mainG == nil || mainG.Func == nil {
		fmt.Fprintln(os.Stderr, "cc11: -interp: no definition of main in", source)
		return driver.ExitFailure
	}

	m := NewMachine(irUnit, td)
	ret, err := m.Call(mainG.Func, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cc11: interp:", err)
		return driver.ExitFailure
	}
	return int(int32(ret.i))
}

func readSource(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
