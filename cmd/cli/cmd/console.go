package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/pvectl/pvectl/internal/console"
	"github.com/spf13/cobra"
)

var consoleCmd = &cobra.Command{
	Use:   "console <vmid>",
	Short: "Attach an interactive console to a running guest",
	Long: `Attach the local terminal to the serial console of a running guest.

The session runs until the guest closes the console or you press
Ctrl+] to disconnect.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkCredentials(); err != nil {
			return err
		}

		c := newClient()
		// No deadline: the session is interactive and open-ended. The
		// HTTP client bounds the individual API calls on its own.
		ctx := context.Background()

		if _, err := c.Login(ctx, cfg.Username, cfg.Password); err != nil {
			return fmt.Errorf("failed to log in: %w", err)
		}
		guest, err := resolveGuest(ctx, c, args[0])
		if err != nil {
			return err
		}

		target := console.Target{
			Node:   guest.Node,
			Type:   guest.Type,
			VMID:   guest.VMID,
			Status: guest.Status,
		}

		fmt.Printf("Connected to guest %d console. Press Ctrl+] to disconnect.\n", guest.VMID)

		err = console.Open(ctx, c, target, console.Options{
			Username:  cfg.Username,
			Password:  cfg.Password,
			VerifyTLS: cfg.VerifyTLS,
			Debug:     cfg.Debug,
		})
		switch {
		case err == nil:
			fmt.Println("\nConsole session closed.")
			return nil
		case errors.Is(err, console.ErrNotRunning):
			return fmt.Errorf("guest %d is %s; start it first with 'pvectl guest start %d'",
				guest.VMID, guest.Status, guest.VMID)
		default:
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}
