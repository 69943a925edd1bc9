package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/snapwatch-go/internal/cli/connection"
	"github.com/yndnr/snapwatch-go/internal/cli/output"
	"github.com/yndnr/snapwatch-go/internal/infra/buildinfo"
	"github.com/yndnr/snapwatch-go/internal/infra/tlsroots"
)

// DefaultServer is the address of a local snapwatch-server.
const DefaultServer = "localhost:5480"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:                 "snapwatch-cli",
		Usage:                "Compare snapshots and inspect a SnapWatch server",
		Version:              buildinfo.String(),
		Flags:                globalFlags(),
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			DiffCommand(),
			WatchCommand(),
			SeedCommand(),
			ConfigCommand(),
			SourcesCommand(),
			LiveCommand(),
			SystemCommand(),
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "SnapWatch server address (e.g., localhost:5480, https://host:5480, unix:///run/snapwatch.sock)",
			EnvVars: []string{"SNAPWATCH_SERVER"},
			Value:   DefaultServer,
		},
		&cli.StringFlag{
			Name:    "ca-file",
			Usage:   "PEM file of extra CAs trusted for https servers",
			EnvVars: []string{"SNAPWATCH_CA_FILE"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml (default: table on a terminal, json otherwise)",
			EnvVars: []string{"SNAPWATCH_OUTPUT"},
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Request timeout",
			Value: connection.DefaultTimeout,
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable verbose output",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Server  string
	CAFile  string
	Output  string
	Wide    bool
	Timeout time.Duration
	Verbose bool
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Server:  c.String("server"),
		Output:  c.String("output"),
		Wide:    c.Bool("wide"),
		CAFile:  c.String("ca-file"),
		Timeout: c.Duration("timeout"),
		Verbose: c.Bool("verbose"),
	}
}

// EnsureConnected returns an HTTP client for the configured server.
func EnsureConnected(c *cli.Context) (*connection.HTTPClient, error) {
	flags := ParseGlobalFlags(c)
	tlsConfig, err := tlsroots.ClientConfigFromFile(flags.CAFile)
	if err != nil {
		return nil, err
	}
	return connection.NewHTTPClient(flags.Server, flags.Timeout, connection.WithTLSConfig(tlsConfig)), nil
}

// callServer sends one request to the configured server and decodes the
// response data into target.
func callServer(c *cli.Context, method, path string, body, target any) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	return client.Call(commandContext(c), method, path, body, target)
}

// newFormatter returns the formatter selected by --output. Table output
// goes through the views in views.go.
func newFormatter(c *cli.Context) (output.Formatter, error) {
	flags := ParseGlobalFlags(c)
	format, err := output.ParseFormat(flags.Output, c.App.Writer)
	if err != nil {
		return nil, err
	}

	f := output.NewFormatter(format, flags.Wide)
	if format == output.FormatTable {
		return tableViews{f}, nil
	}
	return f, nil
}

// printResult writes data to the app writer in the selected format.
func printResult(c *cli.Context, data any) error {
	f, err := newFormatter(c)
	if err != nil {
		return err
	}
	return f.Format(c.App.Writer, data)
}

// commandContext returns the context of the running command.
func commandContext(c *cli.Context) context.Context {
	if c.Context != nil {
		return c.Context
	}
	return context.Background()
}

// requireArgs fails unless exactly n positional arguments were given.
func requireArgs(c *cli.Context, n int) error {
	if c.NArg() != n {
		return fmt.Errorf("%s: expected %d argument(s) %s, got %d",
			c.Command.FullName(), n, c.Command.ArgsUsage, c.NArg())
	}
	return nil
}

// PrintError prints an error message to w.
func PrintError(w io.Writer, err error) {
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, "error: %v\n", err)
}
