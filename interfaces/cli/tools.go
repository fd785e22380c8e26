package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// newToolsCmd creates the tools command.
func (a *App) newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the available tools as JSON",
		Long:  `Print every tool descriptor (name, description, input schema) without starting a server.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := a.buildServer()
			if err != nil {
				return err
			}

			enc := json.NewEncoder(a.stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(srv.ListTools())
		},
	}
}
