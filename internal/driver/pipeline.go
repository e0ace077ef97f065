package driver

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"cc11/internal/build"
	"cc11/internal/diag"
	"cc11/internal/ir"
	"cc11/internal/target"
)

// Exit codes, per §7.
const (
	ExitSuccess           = 0
	ExitFailure           = 1
	ExitUnreadableSource  = 66 // sysexits.h EX_NOINPUT, reused as the "dedicated code"
)

// Run executes the full pipeline for cfg against frontend fe and returns
// the process exit code.
func Run(cfg *Config, fe Frontend) int {
	if cfg.Version {
		fmt.Println("cc11 (self-hosting C11 compiler core)")
		return ExitSuccess
	}

	td, err := target.Resolve(cfg.Arch, cfg.Target, hostOS())
	if err != nil {
		fmt.Fprintln(os.Stderr, "cc11:", err)
		return ExitFailure
	}

	sink := resolveSink(cfg)
	profiler := newStageProfiler()

	var objects []string
	var tmpDir string
	wantsLink := !cfg.PreprocessOnly && !cfg.AssemblyOnly && !cfg.ObjectOnly
	if wantsLink {
		tmpDir, err = os.MkdirTemp("", "cc11-*")
		if err != nil {
			fmt.Fprintln(os.Stderr, "cc11:", err)
			return ExitFailure
		}
		defer os.RemoveAll(tmpDir)
	}

	var mu sync.Mutex
	failed := false
	unreadable := false

	process := func(source string) {
		kind := Classify(source)
		if kind.IsObjectLike() {
			mu.Lock()
			objects = append(objects, source)
			mu.Unlock()
			return
		}
		if !kind.IsCompilable() {
			mu.Lock()
			failed = true
			mu.Unlock()
			fmt.Fprintf(os.Stderr, "cc11: %s: unrecognized input kind\n", source)
			return
		}

		data, rerr := readSource(source)
		if rerr != nil {
			mu.Lock()
			failed, unreadable = true, true
			mu.Unlock()
			fmt.Fprintf(os.Stderr, "cc11: cannot read %s: %v\n", source, rerr)
			return
		}

		sp := profiler.Start("preprocess", source)
		pre, perr := fe.Preprocess(source, data, PreprocessConfig{
			UserIncludes: cfg.UserIncludes, SystemIncludes: cfg.SystemIncludes,
			SysrootPath: cfg.SysrootPath, Defines: cfg.Defines, Std: cfg.Std,
		})
		sp.End()
		if perr != nil {
			mu.Lock()
			failed = true
			mu.Unlock()
			fmt.Fprintf(os.Stderr, "cc11: preprocessing %s: %v\n", source, perr)
			return
		}

		if cfg.PreprocessOnly {
			writeOutput(cfg.Output, pre)
			return
		}

		cp := profiler.Start("compile", source)
		astUnit, cerr := fe.ParseAndCheck(source, pre, td, sink)
		var irUnit *ir.Unit
		if cerr == nil {
			irUnit, cerr = build.BuildUnit(astUnit, td)
		}
		cp.End()
		if cerr != nil {
			mu.Lock()
			failed = true
			mu.Unlock()
			fmt.Fprintf(os.Stderr, "cc11: compiling %s: %v\n", source, cerr)
			return
		}
		asm := dumpAssembly(irUnit, td)

		switch {
		case cfg.AssemblyOnly:
			dest := cfg.Output
			if dest == "" || len(cfg.Sources) > 1 {
				dest = asmPathFor(source)
			}
			writeOutput(dest, asm)
		case cfg.ObjectOnly:
			dest := cfg.Output
			if dest == "" || len(cfg.Sources) > 1 {
				dest = outputPathFor(source, ".o")
			}
			writeOutput(dest, asm)
		default:
			objPath := objectPathFor(source, tmpDir)
			writeOutput(objPath, asm)
			mu.Lock()
			objects = append(objects, objPath)
			mu.Unlock()
		}
	}

	runSources(cfg.Sources, cfg.Jobs, cfg.KeepGoing, process, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return failed
	})

	if failed {
		if unreadable {
			return ExitUnreadableSource
		}
		return ExitFailure
	}
	if cfg.PreprocessOnly || cfg.AssemblyOnly || cfg.ObjectOnly {
		writeProfileLog(profiler, cfg.LogDest)
		return ExitSuccess
	}

	lp := profiler.Start("link", "*")
	out := cfg.Output
	if out == "" {
		out = "a.out"
	}
	linkErr := Link(objects, out)
	lp.End()
	writeProfileLog(profiler, cfg.LogDest)
	if linkErr != nil {
		fmt.Fprintln(os.Stderr, "cc11:", linkErr)
		return ExitFailure
	}
	return ExitSuccess
}

// runSources processes sources either sequentially (jobs<=1, the
// default) or with a bounded worker pool (jobs>1, opt-in per §5).
// Sequential mode is fail-fast unless keepGoing is set, per §7
// "Partial failures are not tolerated... Across sources the driver
// processes subsequent files even after a failure only if explicitly
// configured; default is fail-fast."
func runSources(sources []string, jobs int, keepGoing bool, process func(string), hasFailed func() bool) {
	if jobs <= 1 || len(sources) <= 1 {
		for _, s := range sources {
			if !keepGoing && hasFailed() {
				break
			}
			process(s)
		}
		return
	}
	sem := make(chan struct{}, jobs)
	var wg sync.WaitGroup
	for _, s := range sources {
		s := s
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			process(s)
		}()
	}
	wg.Wait()
}

func resolveSink(cfg *Config) diag.Sink {
	if cfg.NoWarn && cfg.DiagSink == "" {
		return diag.DiscardingSink{}
	}
	w := io.Writer(os.Stderr)
	if cfg.DiagSink != "" && cfg.DiagSink != "-" {
		if f, err := os.Create(cfg.DiagSink); err == nil {
			w = f
		}
	}
	return &diag.WriterSink{W: w, Werror: cfg.Werror}
}

func readSource(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func writeOutput(path, content string) {
	if path == "" || path == "-" {
		fmt.Print(content)
		return
	}
	if dir := filepath.Dir(path); dir != "." {
		os.MkdirAll(dir, 0o755)
	}
	os.WriteFile(path, []byte(content), 0o644)
}

func writeProfileLog(p *stageProfiler, dest string) {
	if dest == "" {
		return
	}
	if err := p.WriteTo(dest); err != nil {
		fmt.Fprintln(os.Stderr, "cc11: writing profile log:", err)
	}
}

func hostOS() string {
	return runtime.GOOS
}
