package console

import (
	"bytes"
	"testing"
)

func TestEncodeData(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"empty", []byte{}, "0:0:"},
		{"single byte", []byte("a"), "0:1:a"},
		{"keystroke chunk", []byte("ls -la\r"), "0:7:ls -la\r"},
		// Length counts bytes, not runes: é is 2 bytes in UTF-8.
		{"multi-byte rune", []byte("é"), "0:2:é"},
		{"binary", []byte{0x00, 0x1B, 0xFF}, "0:3:\x00\x1b\xff"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeData(tt.in)
			if !bytes.Equal(got, []byte(tt.want)) {
				t.Errorf("EncodeData(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncodeResize(t *testing.T) {
	tests := []struct {
		cols, rows int
		want       string
	}{
		{80, 24, "1:80:24:"},
		{1, 1, "1:1:1:"},
		{211, 56, "1:211:56:"},
	}
	for _, tt := range tests {
		got := EncodeResize(tt.cols, tt.rows)
		if string(got) != tt.want {
			t.Errorf("EncodeResize(%d, %d) = %q, want %q", tt.cols, tt.rows, got, tt.want)
		}
	}
}

func TestEncodePing(t *testing.T) {
	if got := EncodePing(); string(got) != "2" {
		t.Errorf("EncodePing() = %q, want %q", got, "2")
	}
}

func TestEncodeHandshake(t *testing.T) {
	got := EncodeHandshake("root@pam", "PVEVNC:abc123")
	want := "root@pam:PVEVNC:abc123\n"
	if string(got) != want {
		t.Errorf("EncodeHandshake() = %q, want %q", got, want)
	}
}

func TestIsDisconnectKey(t *testing.T) {
	if !IsDisconnectKey(0x1D) {
		t.Error("IsDisconnectKey(0x1D) = false, want true")
	}

	// Every other byte, control characters included, is forwarded.
	for b := 0; b < 256; b++ {
		if b == 0x1D {
			continue
		}
		if IsDisconnectKey(byte(b)) {
			t.Errorf("IsDisconnectKey(%#x) = true, want false", b)
		}
	}
}
