//go:build !unix

package console

import "os"

// Windows has no SIGWINCH; the remote keeps the size sent on activation.
func notifyResize(ch chan<- os.Signal) {}

func stopResize(ch chan<- os.Signal) {}
