//go:build unix

package console

import (
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// notifyResize delivers terminal size-change notifications on ch. SIGWINCH
// is edge-triggered: the signal says the size changed, the watcher
// re-queries the actual dimensions.
func notifyResize(ch chan<- os.Signal) {
	signal.Notify(ch, unix.SIGWINCH)
}

func stopResize(ch chan<- os.Signal) {
	signal.Stop(ch)
}
