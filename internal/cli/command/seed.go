package command

import (
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/snapwatch-go/internal/source"
	"github.com/yndnr/snapwatch-go/internal/storage"
)

// SeedCommand returns the seed command.
func SeedCommand() *cli.Command {
	return &cli.Command{
		Name:      "seed",
		Usage:     "Write the flattened entries of FILE into the Badger database at DIR",
		ArgsUsage: "DIR FILE",
		Description: "Seeded databases can be watched by a badger source. The server only\n" +
			"reads the database, so seeding works while it is running.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "prefix",
				Usage: "Prefix added to every key (match the badger source prefix)",
			},
		},
		Action: runSeed,
	}
}

// SeedResult is the outcome of the seed command.
type SeedResult struct {
	Dir     string `json:"dir" yaml:"dir"`
	File    string `json:"file" yaml:"file"`
	Prefix  string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Entries int    `json:"entries" yaml:"entries"`
}

func runSeed(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	ctx := commandContext(c)
	dir, file := c.Args().Get(0), c.Args().Get(1)
	prefix := c.String("prefix")

	snap, err := source.NewFile("seed", file).Snapshot(ctx)
	if err != nil {
		return err
	}

	entries := make(map[string]string, len(snap))
	for k, v := range snap {
		entries[prefix+k] = v
	}

	opts := storage.DefaultOptions(dir)
	opts.GCInterval = 0
	opts.SyncWrites = true

	log := slog.New(slog.DiscardHandler)
	if ParseGlobalFlags(c).Verbose {
		log = slog.New(slog.NewTextHandler(c.App.ErrWriter, nil))
	}

	store, err := storage.Open(opts, log)
	if err != nil {
		return err
	}
	if err := store.SetMany(ctx, entries); err != nil {
		store.Close()
		return fmt.Errorf("seed %s: %w", dir, err)
	}
	if err := store.Close(); err != nil {
		return err
	}

	return printResult(c, &SeedResult{Dir: dir, File: file, Prefix: prefix, Entries: len(entries)})
}
