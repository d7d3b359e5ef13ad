package cli

import (
	"github.com/dmitrijs2005/cloudstorage/internal/client/config"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the "cloud" command tree.
func (a *App) NewRootCommand() *cobra.Command {
	var (
		configPath string
		flags      config.Config
	)

	cmd := &cobra.Command{
		Use:           "cloud",
		Short:         "cloudstorage command line client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			pf := cmd.Flags()
			if pf.Changed("address") {
				cfg.ServerEndpointAddr = flags.ServerEndpointAddr
			}
			if pf.Changed("token-file") {
				cfg.TokenFile = flags.TokenFile
			}
			if pf.Changed("timeout") {
				cfg.Timeout = flags.Timeout
			}
			if pf.Changed("max-upload") {
				cfg.MaxUploadBytes = flags.MaxUploadBytes
			}

			a.config = cfg
			return nil
		},
	}

	var defaults config.Config
	defaults.LoadDefaults()

	pf := cmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "JSON config file")
	pf.StringVarP(&flags.ServerEndpointAddr, "address", "a", defaults.ServerEndpointAddr, "server address and port")
	pf.StringVar(&flags.TokenFile, "token-file", defaults.TokenFile, "where the session token is kept")
	pf.DurationVar(&flags.Timeout, "timeout", defaults.Timeout, "per-command timeout")
	pf.Int64Var(&flags.MaxUploadBytes, "max-upload", defaults.MaxUploadBytes, "largest file the server accepts (bytes)")

	cmd.SetOut(a.out)
	cmd.SetErr(a.out)

	cmd.AddCommand(
		a.newLoginCmd(),
		a.newLogoutCmd(),
		a.newUploadCmd(),
		a.newDownloadCmd(),
		a.newRenameCmd(),
		a.newRemoveCmd(),
		a.newListCmd(),
	)
	return cmd
}
