package cli

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/aws-mcp/infrastructure/logging"
	"github.com/felixgeelhaar/aws-mcp/infrastructure/mcp"
)

// serveOptions holds options for the serve command.
type serveOptions struct {
	httpAddr string
}

// newServeCmd creates the serve command.
func (a *App) newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		Long: `Run the MCP server over stdio (default) or HTTP.

Over stdio, the protocol stream owns stdout; all logging goes to stderr.

Examples:
  # Serve over stdio for an MCP client
  aws-mcp serve

  # Serve over HTTP with SSE
  aws-mcp serve --http :8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := a.buildServer()
			if err != nil {
				return err
			}

			serveOpts := []mcp.ServeOption{
				mcp.WithMiddleware(mcp.Recover(), mcp.RequestID()),
			}

			if opts.httpAddr != "" {
				logging.Info().
					Add(logging.Component("cli")).
					Add(logging.Str("addr", opts.httpAddr)).
					Msg("serving MCP over HTTP")
				return srv.ServeHTTP(cmd.Context(), opts.httpAddr, serveOpts...)
			}

			logging.Info().
				Add(logging.Component("cli")).
				Msg("serving MCP over stdio")
			return srv.ServeStdio(cmd.Context(), serveOpts...)
		},
	}

	cmd.Flags().StringVar(&opts.httpAddr, "http", "", "Serve over HTTP on this address instead of stdio")

	return cmd
}
