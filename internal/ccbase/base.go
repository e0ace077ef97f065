// Package ccbase holds the driver's process-wide exit-status bookkeeping
// and error-reporting helpers, mirroring cmd/go/internal/base's
// Errorf/Fatalf/Exit/AtExit pattern: a sticky exit status that multiple
// independently failing sources can raise without clobbering each
// other's failure, plus a hook list run before the process actually
// exits.
package ccbase

import (
	"log"
	"os"
	"sync"
)

var (
	exitMu     sync.Mutex
	exitStatus int
	atExit     []func()
)

// SetExitStatus raises the process exit status to n if n is higher than
// whatever is already recorded; never lowers it.
func SetExitStatus(n int) {
	exitMu.Lock()
	defer exitMu.Unlock()
	if n > exitStatus {
		exitStatus = n
	}
}

// GetExitStatus returns the exit status recorded so far.
func GetExitStatus() int {
	exitMu.Lock()
	defer exitMu.Unlock()
	return exitStatus
}

// AtExit registers f to run, in registration order, when Exit is called.
func AtExit(f func()) {
	atExit = append(atExit, f)
}

// Exit runs every AtExit hook then terminates the process with the
// recorded exit status.
func Exit() {
	for _, f := range atExit {
		f()
	}
	os.Exit(GetExitStatus())
}

// Errorf logs a user-facing error and bumps the exit status to at least
// 1, without exiting — used so that, outside fail-fast mode, the driver
// can keep processing remaining sources after one fails.
func Errorf(format string, args ...interface{}) {
	log.Printf(format, args...)
	SetExitStatus(1)
}

// Fatalf logs a user-facing error and exits immediately with at least
// status 1 — used for argument parsing and other errors that make
// continuing meaningless.
func Fatalf(format string, args ...interface{}) {
	Errorf(format, args...)
	Exit()
}
