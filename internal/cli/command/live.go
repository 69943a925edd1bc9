package command

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/snapwatch-go/internal/server/httpserver/handler"
)

// LiveCommand returns the live subcommand group.
func LiveCommand() *cli.Command {
	return &cli.Command{
		Name:  "live",
		Usage: "Read and write keys of live sources",
		Subcommands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Show a key",
				ArgsUsage: "SOURCE KEY",
				Action:    liveGet,
			},
			{
				Name:      "set",
				Usage:     "Set a key; the change is reported by the next poll",
				ArgsUsage: "SOURCE KEY VALUE",
				Action:    liveSet,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a key",
				ArgsUsage: "SOURCE KEY",
				Action:    liveDelete,
			},
		},
	}
}

func livePath(name, key string) string {
	return "/v1/live/" + url.PathEscape(name) + "/" + url.PathEscape(key)
}

func liveGet(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	var entry handler.LiveEntry
	path := livePath(c.Args().Get(0), c.Args().Get(1))
	if err := callServer(c, http.MethodGet, path, nil, &entry); err != nil {
		return err
	}
	return printResult(c, &entry)
}

func liveSet(c *cli.Context) error {
	if err := requireArgs(c, 3); err != nil {
		return err
	}
	var entry handler.LiveEntry
	path := livePath(c.Args().Get(0), c.Args().Get(1))
	body := handler.PutLiveRequest{Value: c.Args().Get(2)}
	if err := callServer(c, http.MethodPut, path, body, &entry); err != nil {
		return err
	}
	return printResult(c, &entry)
}

func liveDelete(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	name, key := c.Args().Get(0), c.Args().Get(1)
	if err := callServer(c, http.MethodDelete, livePath(name, key), nil, nil); err != nil {
		return err
	}
	_, err := fmt.Fprintf(c.App.Writer, "deleted %s/%s\n", name, key)
	return err
}
