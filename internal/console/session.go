package console

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"time"

	"github.com/pvectl/pvectl/pkg/types"
)

// Target identifies one guest for a console session, with its state as
// resolved by the caller.
type Target struct {
	Node   string
	Type   types.GuestType
	VMID   int
	Status types.GuestStatus
}

func (t Target) String() string {
	return fmt.Sprintf("%s/%s/%d", t.Node, t.Type, t.VMID)
}

// API is the slice of the hypervisor client the orchestrator needs.
type API interface {
	Login(ctx context.Context, username, password string) (*types.AuthTicket, error)
	TermProxy(ctx context.Context, node string, gtype types.GuestType, vmid int) (*types.TermProxy, error)
	ConsoleEndpoint(node string, gtype types.GuestType, vmid int, tp *types.TermProxy) string
	AuthCookie() string
}

// Options carries session parameters from the command layer. Username and
// Password are only used when the client is not already authenticated.
type Options struct {
	Username  string
	Password  string
	VerifyTLS bool

	// PingInterval overrides the keepalive cadence; zero means default.
	PingInterval time.Duration
	// Input/Output override the local terminal streams; nil means
	// os.Stdin/os.Stdout.
	Input  io.Reader
	Output io.Writer
	Debug  bool
}

// Open runs one console session against the target guest: it checks the
// running precondition, acquires the termproxy credentials, builds the
// endpoint, and hands off to the relay. No step is retried; any failure is
// reported once to the caller. Returns nil on a clean disconnect.
func Open(ctx context.Context, api API, target Target, opts Options) error {
	if target.Status != types.GuestStatusRunning {
		return fmt.Errorf("%w: %s is %s", ErrNotRunning, target, target.Status)
	}

	if api.AuthCookie() == "" {
		if _, err := api.Login(ctx, opts.Username, opts.Password); err != nil {
			return fmt.Errorf("%w: %v", ErrAuth, err)
		}
	}

	tp, err := api.TermProxy(ctx, target.Node, target.Type, target.VMID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuth, err)
	}

	// The handshake identity must match what the termproxy ticket was
	// issued for; the server reports it alongside the ticket.
	username := tp.User
	if username == "" {
		username = opts.Username
	}

	sess := &Session{
		EndpointURL: api.ConsoleEndpoint(target.Node, target.Type, target.VMID, tp),
		AuthCookie:  api.AuthCookie(),
		Username:    username,
		Ticket:      tp.Ticket,
		VerifyTLS:   opts.VerifyTLS,
	}

	relay := &Relay{
		Input:        opts.Input,
		Output:       opts.Output,
		PingInterval: opts.PingInterval,
		Debug:        opts.Debug,
	}
	return relay.Run(sess)
}

func tlsConfig(verify bool) *tls.Config {
	if verify {
		return nil
	}
	return &tls.Config{InsecureSkipVerify: true}
}
