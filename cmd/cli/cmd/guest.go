package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/pvectl/pvectl/pkg/types"
	"github.com/spf13/cobra"
)

var guestCmd = &cobra.Command{
	Use:     "guest",
	Aliases: []string{"vm"},
	Short:   "Manage guests",
	Long:    `List, inspect, start, and stop virtual machines and containers.`,
}

var guestListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all guests",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkCredentials(); err != nil {
			return err
		}

		c := newClient()
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
		defer cancel()

		if _, err := c.Login(ctx, cfg.Username, cfg.Password); err != nil {
			return fmt.Errorf("failed to log in: %w", err)
		}
		guests, err := c.ListGuests(ctx)
		if err != nil {
			return fmt.Errorf("failed to list guests: %w", err)
		}

		if len(guests) == 0 {
			fmt.Println("No guests found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "VMID\tNAME\tNODE\tTYPE\tSTATUS\tUPTIME")
		for _, g := range guests {
			uptime := ""
			if g.Uptime > 0 {
				uptime = (time.Duration(g.Uptime) * time.Second).String()
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
				g.VMID, g.Name, g.Node, g.Type, g.Status, uptime)
		}
		w.Flush()

		return nil
	},
}

var guestStatusCmd = &cobra.Command{
	Use:   "status <vmid>",
	Short: "Show the current status of a guest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkCredentials(); err != nil {
			return err
		}

		c := newClient()
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
		defer cancel()

		if _, err := c.Login(ctx, cfg.Username, cfg.Password); err != nil {
			return fmt.Errorf("failed to log in: %w", err)
		}
		guest, err := resolveGuest(ctx, c, args[0])
		if err != nil {
			return err
		}
		state, err := c.GuestState(ctx, guest.Node, guest.Type, guest.VMID)
		if err != nil {
			return fmt.Errorf("failed to get guest status: %w", err)
		}

		fmt.Printf("Guest: %d\n", guest.VMID)
		if state.Name != "" {
			fmt.Printf("  Name: %s\n", state.Name)
		}
		fmt.Printf("  Node: %s\n", guest.Node)
		fmt.Printf("  Type: %s\n", guest.Type)
		fmt.Printf("  Status: %s\n", state.Status)
		if state.Uptime > 0 {
			fmt.Printf("  Uptime: %s\n", (time.Duration(state.Uptime) * time.Second).String())
		}

		return nil
	},
}

var guestStartCmd = &cobra.Command{
	Use:   "start <vmid>",
	Short: "Start a guest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkCredentials(); err != nil {
			return err
		}

		c := newClient()
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
		defer cancel()

		if _, err := c.Login(ctx, cfg.Username, cfg.Password); err != nil {
			return fmt.Errorf("failed to log in: %w", err)
		}
		guest, err := resolveGuest(ctx, c, args[0])
		if err != nil {
			return err
		}
		if err := c.StartGuest(ctx, guest.Node, guest.Type, guest.VMID); err != nil {
			return fmt.Errorf("failed to start guest: %w", err)
		}

		fmt.Printf("✓ Guest %d start requested\n", guest.VMID)
		return nil
	},
}

var guestStopCmd = &cobra.Command{
	Use:   "stop <vmid>",
	Short: "Stop a guest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkCredentials(); err != nil {
			return err
		}

		c := newClient()
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
		defer cancel()

		if _, err := c.Login(ctx, cfg.Username, cfg.Password); err != nil {
			return fmt.Errorf("failed to log in: %w", err)
		}
		guest, err := resolveGuest(ctx, c, args[0])
		if err != nil {
			return err
		}
		if err := c.StopGuest(ctx, guest.Node, guest.Type, guest.VMID); err != nil {
			return fmt.Errorf("failed to stop guest: %w", err)
		}

		fmt.Printf("✓ Guest %d stop requested\n", guest.VMID)
		return nil
	},
}

// guestResolver is the listing slice of the client used to find a guest by
// VMID or name.
type guestResolver interface {
	ListGuests(ctx context.Context) ([]types.Guest, error)
}

// resolveGuest finds a guest by numeric VMID or by name across the cluster
// listing.
func resolveGuest(ctx context.Context, c guestResolver, ref string) (*types.Guest, error) {
	guests, err := c.ListGuests(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list guests: %w", err)
	}

	vmid, vmidErr := strconv.Atoi(ref)
	for i := range guests {
		if vmidErr == nil && guests[i].VMID == vmid {
			return &guests[i], nil
		}
		if vmidErr != nil && guests[i].Name == ref {
			return &guests[i], nil
		}
	}
	return nil, fmt.Errorf("guest %q not found", ref)
}

func init() {
	rootCmd.AddCommand(guestCmd)

	guestCmd.AddCommand(guestListCmd)
	guestCmd.AddCommand(guestStatusCmd)
	guestCmd.AddCommand(guestStartCmd)
	guestCmd.AddCommand(guestStopCmd)
}
