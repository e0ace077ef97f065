//go:build unix

package driver

import (
	"os"
	"os/exec"
	"os/signal"

	"golang.org/x/sys/unix"
)

// forwardSignals relays every signal the driver process receives to
// cmd's process group while it runs, grounded on
// cmd/go/internal/base.StartSigHandlers forwarding the signals a
// foreground build tool is expected to pass through to the tool it
// shells out to (the system linker here, `go build`'s sub-processes
// there). golang.org/x/sys/unix supplies the named signal set so the
// forwarded list is explicit rather than "every os.Signal the runtime
// happens to deliver".
func forwardSignals(cmd *exec.Cmd) (stop func()) {
	sigs := []os.Signal{unix.SIGINT, unix.SIGTERM, unix.SIGHUP, unix.SIGQUIT}
	sigc := make(chan os.Signal, len(sigs))
	signal.Notify(sigc, sigs...)

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
