// Package cli provides the command-line interface for the aws-mcp server.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	awsmcp "github.com/felixgeelhaar/aws-mcp"
	"github.com/felixgeelhaar/aws-mcp/domain/tool"
	"github.com/felixgeelhaar/aws-mcp/infrastructure/logging"
	"github.com/felixgeelhaar/aws-mcp/infrastructure/mcp"
	"github.com/felixgeelhaar/aws-mcp/infrastructure/session"
	"github.com/felixgeelhaar/aws-mcp/infrastructure/storage/memory"
	"github.com/felixgeelhaar/aws-mcp/pack/costexplorer"
	"github.com/felixgeelhaar/aws-mcp/pack/ec2"
	"github.com/felixgeelhaar/aws-mcp/pack/ecs"
	"github.com/felixgeelhaar/aws-mcp/pack/eks"
	"github.com/felixgeelhaar/aws-mcp/pack/s3"
)

// Version information set at build time.
var (
	Version   = awsmcp.Version
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// App represents the CLI application.
type App struct {
	root   *cobra.Command
	stdout io.Writer
	stderr io.Writer

	logLevel  string
	logFormat string

	// registry is built lazily so flags apply before any tool runs.
	registry *memory.ToolRegistry
}

// New creates a new CLI application.
func New() *App {
	app := &App{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	app.root = &cobra.Command{
		Use:   "aws-mcp",
		Short: "MCP server for read-only AWS queries",
		Long: `aws-mcp exposes read-only AWS queries as MCP tools: S3 buckets, EKS and
ECS clusters, EC2 instances and Cost Explorer analytics. Credentials come
from the standard AWS CLI profile chain; every tool accepts profile_name
and region_name arguments.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Init(logging.Config{
				Level:  app.logLevel,
				Format: app.logFormat,
			})
		},
	}

	app.root.PersistentFlags().StringVar(&app.logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	app.root.PersistentFlags().StringVar(&app.logFormat, "log-format", "console", "Log format (console or json)")

	app.root.AddCommand(
		app.newServeCmd(),
		app.newToolsCmd(),
		app.newCallCmd(),
		app.newVersionCmd(),
	)

	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// Execute runs the CLI application.
func (a *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments (useful for testing).
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

// buildRegistry assembles every tool pack over one shared session factory.
func (a *App) buildRegistry() (*memory.ToolRegistry, error) {
	if a.registry != nil {
		return a.registry, nil
	}

	sessions := session.NewFactory()

	registry := memory.NewToolRegistry()
	for _, tools := range [][]tool.Tool{
		s3.New(s3.Config{Sessions: sessions}),
		eks.New(eks.Config{Sessions: sessions}),
		ecs.New(ecs.Config{Sessions: sessions}),
		ec2.New(ec2.Config{Sessions: sessions}),
		costexplorer.New(costexplorer.Config{Sessions: sessions}),
	} {
		if err := registry.RegisterAll(tools...); err != nil {
			return nil, fmt.Errorf("failed to register tools: %w", err)
		}
	}

	a.registry = registry
	return registry, nil
}

// buildServer wraps the registry in an MCP server.
func (a *App) buildServer() (*mcp.Server, error) {
	registry, err := a.buildRegistry()
	if err != nil {
		return nil, err
	}

	srv := mcp.NewServer(mcp.ServerConfig{
		Name:     "aws-mcp",
		Version:  Version,
		Registry: registry,
		Instructions: "Read-only AWS queries. Every tool accepts optional profile_name and " +
			"region_name arguments selecting the AWS CLI profile and region.",
	})
	return srv, nil
}

// newVersionCmd creates the version command.
func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "aws-mcp version %s\n", Version)
			fmt.Fprintf(a.stdout, "  Git commit: %s\n", GitCommit)
			fmt.Fprintf(a.stdout, "  Build date: %s\n", BuildDate)
		},
	}
}
