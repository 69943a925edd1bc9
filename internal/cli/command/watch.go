package command

import (
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/snapwatch-go/internal/core/service"
	"github.com/yndnr/snapwatch-go/internal/infra/confloader"
	"github.com/yndnr/snapwatch-go/internal/source"
	"github.com/yndnr/snapwatch-go/internal/telemetry/logger"
)

// WatchCommand returns the watch command.
func WatchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Print a change set whenever FILE changes",
		ArgsUsage: "FILE",
		Description: "Polls FILE once, then again on every write and, with --interval,\n" +
			"on a schedule. Runs until interrupted.",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Also poll on this interval (0 polls on file changes only)",
			},
			&cli.StringFlag{
				Name:  "filter",
				Usage: "JSON-logic rule applied to each changed entry",
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "Source name shown in change sets (default: file name without extension)",
			},
			&cli.BoolFlag{
				Name:  "once",
				Usage: "Poll once, print the snapshot and exit",
			},
		},
		Action: runWatch,
	}
}

func runWatch(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	path := c.Args().First()

	name := c.String("name")
	if name == "" {
		base := filepath.Base(path)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	filter, err := service.CompileFilter(c.String("filter"))
	if err != nil {
		return err
	}
	f, err := newFormatter(c)
	if err != nil {
		return err
	}

	level := "warn"
	if ParseGlobalFlags(c).Verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Config{Level: level, Format: "text", Output: c.App.ErrWriter})
	if err != nil {
		return err
	}

	poller := service.NewPoller(source.NewFile(name, path), service.PollerConfig{
		Interval: c.Duration("interval"),
		History:  1,
		Filter:   filter,
	},
		service.WithSinks(service.NewWriterSink(c.App.Writer, f)),
		service.WithLogger(log.Slog()),
	)

	ctx := commandContext(c)
	if c.Bool("once") {
		_, err := poller.PollOnce(ctx)
		return err
	}

	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log.Slog()))
	if err != nil {
		return err
	}
	defer watcher.Stop()

	if err := watcher.Watch(path); err != nil {
		return err
	}
	watcher.OnChange(func(string) { poller.Trigger() })
	watcher.StartAsync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	poller.Run(ctx)
	return nil
}
