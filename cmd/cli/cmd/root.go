package cmd

import (
	"fmt"

	"github.com/pvectl/pvectl/internal/config"
	"github.com/pvectl/pvectl/pkg/client"
	"github.com/spf13/cobra"
)

var cfg *config.Config

var (
	server    string
	username  string
	password  string
	verifyTLS bool
	debug     bool
)

var rootCmd = &cobra.Command{
	Use:   "pvectl",
	Short: "pvectl - Manage hypervisor guests from the command line",
	Long: `pvectl is a command-line tool for a Proxmox-style virtualization host.

It provides commands to list and control virtual machines and containers,
and to attach an interactive console to a running guest.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		// Flags win over environment.
		if cmd.Flags().Changed("server") {
			loaded.Server = server
		}
		if cmd.Flags().Changed("username") {
			loaded.Username = username
		}
		if cmd.Flags().Changed("password") {
			loaded.Password = password
		}
		if cmd.Flags().Changed("verify-tls") {
			loaded.VerifyTLS = verifyTLS
		}
		if cmd.Flags().Changed("debug") {
			loaded.Debug = debug
		}
		cfg = loaded
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&server, "server", "", "hypervisor API base URL (default $PVECTL_SERVER)")
	rootCmd.PersistentFlags().StringVar(&username, "username", "", "API username, e.g. root@pam (default $PVECTL_USERNAME)")
	rootCmd.PersistentFlags().StringVar(&password, "password", "", "API password (default $PVECTL_PASSWORD)")
	rootCmd.PersistentFlags().BoolVar(&verifyTLS, "verify-tls", false, "verify the server TLS certificate")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func checkCredentials() error {
	if cfg.Password == "" {
		return fmt.Errorf("password is required. Set PVECTL_PASSWORD environment variable or use --password flag")
	}
	return nil
}

func newClient() *client.Client {
	return client.NewClient(cfg.Server, cfg.VerifyTLS)
}
