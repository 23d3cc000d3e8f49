package console

import (
	"io"
	"os"
	"time"

	"golang.org/x/term"
)

// terminalFile returns in as an *os.File when it is an interactive
// terminal, nil otherwise (piped input, test readers).
func terminalFile(in io.Reader) *os.File {
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil
	}
	return f
}

// enterRawMode switches the terminal to raw mode and returns the restore
// function. The caller must run restore on every exit path; it is the only
// way out of raw mode. Restore also clears any read deadline left behind
// by session shutdown so the terminal stays usable afterwards.
func enterRawMode(f *os.File) (restore func(), err error) {
	old, err := term.MakeRaw(int(f.Fd()))
	if err != nil {
		return nil, err
	}
	return func() {
		_ = term.Restore(int(f.Fd()), old)
		_ = f.SetReadDeadline(time.Time{})
	}, nil
}
