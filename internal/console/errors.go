package console

import "errors"

// Error classes for console sessions. Call sites wrap these with %w so
// callers can classify failures with errors.Is while keeping the detail
// message.
var (
	// ErrNotRunning means the guest is not in the running state; no
	// network connection was attempted.
	ErrNotRunning = errors.New("guest is not running")

	// ErrAuth means the ticket or termproxy exchange was rejected.
	// Stale credentials will not succeed on retry, so callers should
	// surface this rather than retry silently.
	ErrAuth = errors.New("authentication failed")

	// ErrConnection means the WebSocket could not be established or
	// failed mid-session.
	ErrConnection = errors.New("console connection failed")

	// ErrProtocol means the remote sent something this client could not
	// handle. Not expected in normal operation.
	ErrProtocol = errors.New("console protocol error")
)
