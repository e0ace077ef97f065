//go:build !unix

package driver

import (
	"os"
	"os/exec"
	"os/signal"
)

// forwardSignals is the non-Unix fallback: golang.org/x/sys/unix has no
// meaning on Windows, so this relays whatever os.Signal values the
// runtime delivers instead of naming a fixed POSIX set.
func forwardSignals(cmd *exec.Cmd) (stop func()) {
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-sigc:
				if cmd.Process != nil {
					cmd.Process.Signal(sig)
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigc)
		close(done)
	}
}
