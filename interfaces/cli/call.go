package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/aws-mcp/infrastructure/session"
)

// callOptions holds options for the call command.
type callOptions struct {
	args string
}

// newCallCmd creates the call command.
func (a *App) newCallCmd() *cobra.Command {
	opts := &callOptions{}

	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Invoke a tool directly, without an MCP client",
		Long: `Invoke one tool and print its payload. Useful for checking credentials
and connectivity before wiring up a client.

Examples:
  aws-mcp call list_s3_buckets
  aws-mcp call list_s3_buckets --args '{"profile_name": "prod"}'
  aws-mcp call describe_ec2_instance --args '{"instance_id": "i-0123456789abcdef0"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := a.buildServer()
			if err != nil {
				return err
			}

			var input json.RawMessage
			if opts.args != "" {
				if !json.Valid([]byte(opts.args)) {
					return fmt.Errorf("--args is not valid JSON")
				}
				input = json.RawMessage(opts.args)
			}

			result, err := srv.Dispatch(cmd.Context(), args[0], input)
			if err != nil {
				// A tool failure is a rendered payload; print it the way
				// an MCP client would receive it.
				var te *session.ToolError
				if errors.As(err, &te) {
					fmt.Fprintln(a.stdout, te.Render())
					return nil
				}
				return err
			}

			fmt.Fprintln(a.stdout, result.OutputString())
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.args, "args", "", "Tool arguments as a JSON object")

	return cmd
}
