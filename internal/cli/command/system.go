package command

import (
	"net/http"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/snapwatch-go/internal/infra/buildinfo"
)

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:    "system",
		Aliases: []string{"sys"},
		Usage:   "Server health and build information",
		Subcommands: []*cli.Command{
			{
				Name:   "health",
				Usage:  "Check server health",
				Action: systemHealth,
			},
			{
				Name:   "ready",
				Usage:  "Check that every source has been polled",
				Action: systemReady,
			},
			{
				Name:   "version",
				Usage:  "Show CLI build information",
				Action: systemVersion,
			},
		},
	}
}

// HealthStatus is the body of /health and /ready.
type HealthStatus struct {
	Status  string `json:"status" yaml:"status"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	Time    string `json:"time" yaml:"time"`
}

func systemHealth(c *cli.Context) error {
	return getHealth(c, "/health")
}

func systemReady(c *cli.Context) error {
	return getHealth(c, "/ready")
}

func getHealth(c *cli.Context, path string) error {
	var status HealthStatus
	if err := callServer(c, http.MethodGet, path, nil, &status); err != nil {
		return err
	}
	return printResult(c, &status)
}

func systemVersion(c *cli.Context) error {
	info := buildinfo.Get()
	return printResult(c, &info)
}
