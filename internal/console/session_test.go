package console

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pvectl/pvectl/pkg/types"
)

// fakeAPI counts calls so tests can assert which exchanges happened.
type fakeAPI struct {
	loginCalls     int
	termproxyCalls int

	loginErr     error
	termproxyErr error

	tp       *types.TermProxy
	endpoint string
	cookie   string
}

func (f *fakeAPI) Login(ctx context.Context, username, password string) (*types.AuthTicket, error) {
	f.loginCalls++
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	f.cookie = "PVEAuthCookie=AUTH"
	return &types.AuthTicket{Username: username, Ticket: "AUTH", CSRFToken: "CSRF"}, nil
}

func (f *fakeAPI) TermProxy(ctx context.Context, node string, gtype types.GuestType, vmid int) (*types.TermProxy, error) {
	f.termproxyCalls++
	if f.termproxyErr != nil {
		return nil, f.termproxyErr
	}
	return f.tp, nil
}

func (f *fakeAPI) ConsoleEndpoint(node string, gtype types.GuestType, vmid int, tp *types.TermProxy) string {
	return f.endpoint
}

func (f *fakeAPI) AuthCookie() string {
	return f.cookie
}

func runningTarget() Target {
	return Target{Node: "node1", Type: types.GuestTypeQemu, VMID: 100, Status: types.GuestStatusRunning}
}

func TestOpenNotRunning(t *testing.T) {
	api := &fakeAPI{}
	target := runningTarget()
	target.Status = types.GuestStatusStopped

	err := Open(context.Background(), api, target, Options{})
	if !errors.Is(err, ErrNotRunning) {
		t.Fatalf("Open returned %v, want ErrNotRunning", err)
	}

	// Precondition failures must not touch the network.
	if api.loginCalls != 0 || api.termproxyCalls != 0 {
		t.Errorf("Open made %d login and %d termproxy calls for a stopped guest, want none",
			api.loginCalls, api.termproxyCalls)
	}
}

func TestOpenAuthFailure(t *testing.T) {
	api := &fakeAPI{loginErr: fmt.Errorf("401 authentication failure")}

	err := Open(context.Background(), api, runningTarget(), Options{Username: "root@pam", Password: "bad"})
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("Open returned %v, want ErrAuth", err)
	}
	if api.termproxyCalls != 0 {
		t.Errorf("termproxy was called %d times after a failed login, want 0", api.termproxyCalls)
	}
}

func TestOpenTermProxyRejected(t *testing.T) {
	api := &fakeAPI{termproxyErr: fmt.Errorf("403 permission denied")}

	err := Open(context.Background(), api, runningTarget(), Options{Username: "root@pam", Password: "pw"})
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("Open returned %v, want ErrAuth", err)
	}
	if api.loginCalls != 1 {
		t.Errorf("login calls = %d, want 1", api.loginCalls)
	}
}

func TestOpenEndToEnd(t *testing.T) {
	handshake := make(chan []byte, 1)
	wsURL := newConsoleServer(t, func(conn *websocket.Conn) {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		handshake <- msg
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	api := &fakeAPI{
		tp:       &types.TermProxy{Port: 5900, Ticket: "PVEVNC:tp1", User: "term@pve"},
		endpoint: wsURL,
	}

	input := newChunkReader()
	input.ch <- []byte{0x1D} // disconnect as soon as the session is active

	err := Open(context.Background(), api, runningTarget(), Options{
		Username:     "root@pam",
		Password:     "pw",
		Input:        input,
		Output:       &syncBuffer{},
		PingInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("Open returned %v, want nil", err)
	}

	// The handshake identity comes from the termproxy response, not the
	// login username.
	if got := string(waitFrame(t, handshake)); got != "term@pve:PVEVNC:tp1\n" {
		t.Errorf("handshake = %q, want %q", got, "term@pve:PVEVNC:tp1\n")
	}
	if api.loginCalls != 1 || api.termproxyCalls != 1 {
		t.Errorf("login/termproxy calls = %d/%d, want 1/1", api.loginCalls, api.termproxyCalls)
	}
}
