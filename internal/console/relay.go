package console

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/term"
)

// Session is the immutable descriptor for one console connection. It is
// built by Open after credential resolution and consumed read-only by the
// relay; a fresh descriptor is required for every session.
type Session struct {
	EndpointURL string // WebSocket URL including port + ticket query params
	AuthCookie  string // PVEAuthCookie header value
	Username    string
	Ticket      string // termproxy ticket, sent in the handshake line
	VerifyTLS   bool
}

type relayState int

const (
	stateConnecting relayState = iota
	stateHandshaking
	stateActive
	stateClosing
	stateClosed
)

const defaultPingInterval = 30 * time.Second

// Relay pumps bytes between the local terminal and the remote console.
// Zero value is not usable; set Input/Output before Run. A Relay runs at
// most one session and is not reusable after Run returns.
type Relay struct {
	// Input is the local keystroke source, normally os.Stdin. When it is
	// a terminal, Run switches it to raw mode for the session and
	// watches it for size changes.
	Input io.Reader

	// Output receives remote console bytes verbatim, normally os.Stdout.
	Output io.Writer

	// PingInterval is the keepalive cadence. Zero means the default.
	PingInterval time.Duration

	// Debug enables connection lifecycle tracing to the standard logger.
	Debug bool

	conn    *websocket.Conn
	writeMu sync.Mutex // serializes the three frame producers on the socket

	mu    sync.Mutex
	state relayState
	err   error // first close reason; nil for clean disconnect

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Run connects to the session endpoint, performs the handshake, and pumps
// until disconnect. It returns nil on a clean disconnect (escape key or
// remote close) and a typed error otherwise. If Input is a terminal, raw
// mode is entered for the duration and restored on every exit path before
// Run returns.
func (r *Relay) Run(sess *Session) error {
	if r.Input == nil {
		r.Input = os.Stdin
	}
	if r.Output == nil {
		r.Output = os.Stdout
	}
	if r.PingInterval == 0 {
		r.PingInterval = defaultPingInterval
	}
	r.done = make(chan struct{})
	r.setState(stateConnecting)

	dialer := websocket.Dialer{
		TLSClientConfig:  tlsConfig(sess.VerifyTLS),
		Subprotocols:     []string{"binary"},
		HandshakeTimeout: 10 * time.Second,
	}
	header := http.Header{}
	if sess.AuthCookie != "" {
		header.Set("Cookie", sess.AuthCookie)
	}

	conn, resp, err := dialer.Dial(sess.EndpointURL, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("%w: dial %s (status %d): %v", ErrConnection, sess.EndpointURL, resp.StatusCode, err)
		}
		return fmt.Errorf("%w: dial %s: %v", ErrConnection, sess.EndpointURL, err)
	}
	r.conn = conn
	r.debugf("console: connected to %s", sess.EndpointURL)

	// Raw mode is scoped to the pumps: entered here, restored
	// unconditionally no matter how the session ends.
	r.setState(stateHandshaking)
	tty := terminalFile(r.Input)
	if tty != nil {
		restore, err := enterRawMode(tty)
		if err != nil {
			conn.Close()
			return fmt.Errorf("%w: set raw mode: %v", ErrConnection, err)
		}
		defer restore()
	}

	if err := r.send(EncodeHandshake(sess.Username, sess.Ticket)); err != nil {
		r.close(fmt.Errorf("%w: handshake: %v", ErrConnection, err))
		r.finish()
		return r.runErr()
	}

	r.setState(stateActive)
	// The input pump is not part of the WaitGroup: a blocked terminal
	// read is only interruptible via the read deadline set in close(),
	// and a non-file Input may stay blocked until its next read returns.
	go r.inputPump()
	r.wg.Add(2)
	go r.outputPump()
	go r.pingPump()
	if tty != nil {
		r.wg.Add(1)
		go r.resizePump(tty)
	}

	<-r.done
	r.finish()
	return r.runErr()
}

// finish waits out the pumps and completes the Closing -> Closed
// transition.
func (r *Relay) finish() {
	r.wg.Wait()
	r.setState(stateClosed)
	r.debugf("console: session closed")
}

// close initiates the Closing state exactly once. A nil cause marks a
// clean disconnect. Safe to call from any pump.
func (r *Relay) close(cause error) {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.state = stateClosing
		r.err = cause
		r.mu.Unlock()

		close(r.done)

		// A blocked terminal read does not notice the done channel;
		// force the pending Read to return.
		if f, ok := r.Input.(*os.File); ok {
			_ = f.SetReadDeadline(time.Now())
		}

		r.writeMu.Lock()
		_ = r.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		r.writeMu.Unlock()
		_ = r.conn.Close()
	})
}

// inputPump reads local keystrokes and forwards them as data frames. The
// disconnect byte ends the session without being forwarded; bytes read
// before it in the same chunk are still delivered.
func (r *Relay) inputPump() {
	buf := make([]byte, 1024)
	for {
		n, err := r.Input.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			for i, b := range chunk {
				if IsDisconnectKey(b) {
					if i > 0 {
						_ = r.send(EncodeData(chunk[:i]))
					}
					r.debugf("console: disconnect key pressed")
					r.close(nil)
					return
				}
			}
			if sendErr := r.send(EncodeData(chunk)); sendErr != nil {
				r.close(fmt.Errorf("%w: send input: %v", ErrConnection, sendErr))
				return
			}
		}
		if err != nil {
			select {
			case <-r.done:
				// Read was interrupted by close(); not an error.
			default:
				if err == io.EOF {
					r.close(nil)
				} else {
					r.close(fmt.Errorf("%w: read input: %v", ErrConnection, err))
				}
			}
			return
		}
	}
}

// outputPump writes remote console bytes through to the local terminal.
// The remote only ever sends raw output, so there is nothing to decode.
func (r *Relay) outputPump() {
	defer r.wg.Done()

	for {
		_, msg, err := r.conn.ReadMessage()
		if err != nil {
			select {
			case <-r.done:
			default:
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					r.debugf("console: remote closed the session")
					r.close(nil)
				} else {
					r.close(fmt.Errorf("%w: read: %v", ErrConnection, err))
				}
			}
			return
		}
		if len(msg) == 0 {
			continue
		}
		if _, err := r.Output.Write(msg); err != nil {
			r.close(fmt.Errorf("%w: write output: %v", ErrConnection, err))
			return
		}
	}
}

// pingPump sends a keepalive frame on a fixed cadence. Pure liveness
// signalling; it never waits for an acknowledgement.
func (r *Relay) pingPump() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			if err := r.send(EncodePing()); err != nil {
				r.close(fmt.Errorf("%w: keepalive: %v", ErrConnection, err))
				return
			}
		}
	}
}

// resizePump sends the current terminal size once on activation, then
// again on each size-change signal.
func (r *Relay) resizePump(tty *os.File) {
	defer r.wg.Done()

	winch := make(chan os.Signal, 1)
	notifyResize(winch)
	defer stopResize(winch)

	r.sendSize(tty)
	for {
		select {
		case <-r.done:
			return
		case <-winch:
			r.sendSize(tty)
		}
	}
}

func (r *Relay) sendSize(tty *os.File) {
	cols, rows, err := term.GetSize(int(tty.Fd()))
	if err != nil || cols <= 0 || rows <= 0 {
		return
	}
	_ = r.send(EncodeResize(cols, rows))
}

// send writes one frame to the socket. All producers funnel through here
// so concurrent frames never interleave on the wire.
func (r *Relay) send(frame []byte) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	return r.conn.WriteMessage(websocket.BinaryMessage, frame)
}

func (r *Relay) setState(s relayState) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

func (r *Relay) currentState() relayState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Relay) runErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Relay) debugf(format string, args ...interface{}) {
	if r.Debug {
		log.Printf(format, args...)
	}
}
