package console

import "strconv"

// The termproxy wire protocol frames every client-to-server message as a
// small ASCII-prefixed record. The server-to-client direction carries raw
// terminal output with no framing at all.

// disconnectKey is Ctrl-], the telnet-style escape byte that ends the
// session locally instead of being forwarded to the guest.
const disconnectKey = 0x1D

// EncodeData frames terminal input for the wire: "0:<len>:<bytes>". The
// length is the raw byte count, so multi-byte input is counted per byte,
// not per rune. Empty input encodes to "0:0:".
func EncodeData(p []byte) []byte {
	frame := make([]byte, 0, len(p)+8)
	frame = append(frame, '0', ':')
	frame = strconv.AppendInt(frame, int64(len(p)), 10)
	frame = append(frame, ':')
	return append(frame, p...)
}

// EncodeResize frames a terminal size change: "1:<cols>:<rows>:". The
// trailing colon is part of the format. Callers must pass non-negative
// dimensions.
func EncodeResize(cols, rows int) []byte {
	frame := make([]byte, 0, 16)
	frame = append(frame, '1', ':')
	frame = strconv.AppendInt(frame, int64(cols), 10)
	frame = append(frame, ':')
	frame = strconv.AppendInt(frame, int64(rows), 10)
	return append(frame, ':')
}

// EncodePing returns the keepalive frame: the single byte "2".
func EncodePing() []byte {
	return []byte{'2'}
}

// EncodeHandshake builds the authentication line sent once, immediately
// after the transport connects and before any framed message:
// "<username>:<ticket>\n".
func EncodeHandshake(username, ticket string) []byte {
	line := make([]byte, 0, len(username)+len(ticket)+2)
	line = append(line, username...)
	line = append(line, ':')
	line = append(line, ticket...)
	return append(line, '\n')
}

// IsDisconnectKey reports whether b is the local escape byte (Ctrl-]).
// No other byte, Ctrl-C included, ends the session locally; everything
// else is forwarded to the guest.
func IsDisconnectKey(b byte) bool {
	return b == disconnectKey
}
