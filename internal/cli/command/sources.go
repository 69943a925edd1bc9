package command

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/snapwatch-go/internal/core/service"
	"github.com/yndnr/snapwatch-go/internal/server/httpserver/handler"
	"github.com/yndnr/snapwatch-go/internal/source"
)

// SourcesCommand returns the sources subcommand group.
func SourcesCommand() *cli.Command {
	return &cli.Command{
		Name:    "sources",
		Aliases: []string{"src"},
		Usage:   "Inspect and poll the sources of a server",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List sources and their poll status",
				Action:  sourcesList,
			},
			{
				Name:      "get",
				Usage:     "Show the poll status of a source",
				ArgsUsage: "NAME",
				Action:    sourcesGet,
			},
			{
				Name:      "snapshot",
				Usage:     "Show the last snapshot of a source",
				ArgsUsage: "NAME",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "redact",
						Usage: "Mask values that look like credentials",
					},
				},
				Action: sourcesSnapshot,
			},
			{
				Name:      "changes",
				Usage:     "Show recent change sets of a source, newest first",
				ArgsUsage: "NAME",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of change sets",
						Value:   20,
					},
				},
				Action: sourcesChanges,
			},
			{
				Name:      "poll",
				Usage:     "Poll a source now",
				ArgsUsage: "NAME",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "async",
						Usage: "Queue the poll instead of waiting for its result",
					},
				},
				Action: sourcesPoll,
			},
			{
				Name:      "compare",
				Usage:     "Compare FILE with the last snapshot of a source without updating it",
				ArgsUsage: "NAME FILE",
				Action:    sourcesCompare,
			},
			{
				Name:      "reset",
				Usage:     "Forget the last snapshot; the next poll reports every entry",
				ArgsUsage: "NAME",
				Action:    sourcesReset,
			},
		},
	}
}

func sourcePath(name string, suffix ...string) string {
	p := "/v1/sources/" + url.PathEscape(name)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}

func sourcesList(c *cli.Context) error {
	var resp handler.ListSourcesResponse
	if err := callServer(c, http.MethodGet, "/v1/sources", nil, &resp); err != nil {
		return err
	}
	return printResult(c, &resp)
}

func sourcesGet(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	var status service.PollerStatus
	if err := callServer(c, http.MethodGet, sourcePath(c.Args().First()), nil, &status); err != nil {
		return err
	}
	return printResult(c, &status)
}

func sourcesSnapshot(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	path := sourcePath(c.Args().First(), "snapshot")
	if c.Bool("redact") {
		path += "?redact=true"
	}

	var resp handler.SnapshotResponse
	if err := callServer(c, http.MethodGet, path, nil, &resp); err != nil {
		return err
	}
	return printResult(c, &resp)
}

func sourcesChanges(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	path := sourcePath(c.Args().First(), "changes") + "?limit=" + strconv.Itoa(c.Int("limit"))

	var resp handler.ChangesResponse
	if err := callServer(c, http.MethodGet, path, nil, &resp); err != nil {
		return err
	}
	return printResult(c, &resp)
}

func sourcesPoll(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	path := sourcePath(c.Args().First(), "poll")
	if c.Bool("async") {
		path += "?async=true"
	}

	var resp handler.PollResponse
	if err := callServer(c, http.MethodPost, path, nil, &resp); err != nil {
		return err
	}
	return printResult(c, &resp)
}

func sourcesCompare(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	ctx := commandContext(c)
	name, file := c.Args().Get(0), c.Args().Get(1)

	candidate, err := source.NewFile(name, file).Snapshot(ctx)
	if err != nil {
		return err
	}

	var resp handler.CompareResponse
	if err := callServer(c, http.MethodPost, sourcePath(name, "compare"), candidate, &resp); err != nil {
		return err
	}
	return printResult(c, &resp)
}

func sourcesReset(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	var status service.PollerStatus
	if err := callServer(c, http.MethodPost, sourcePath(c.Args().First(), "reset"), nil, &status); err != nil {
		return err
	}
	return printResult(c, &status)
}
