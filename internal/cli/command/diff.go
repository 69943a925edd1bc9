package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/snapwatch-go/internal/cli/output"
	"github.com/yndnr/snapwatch-go/internal/core/service"
	"github.com/yndnr/snapwatch-go/internal/source"
	"github.com/yndnr/snapwatch-go/pkg/comparer"
)

// DiffCommand returns the diff command.
func DiffCommand() *cli.Command {
	return &cli.Command{
		Name:      "diff",
		Usage:     "Show entries of NEW that are new or changed relative to OLD",
		ArgsUsage: "OLD NEW",
		Description: "OLD and NEW are YAML or JSON documents, flattened to dotted keys.\n" +
			"Keys present in OLD but missing from NEW are not reported.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "filter",
				Usage: "JSON-logic rule applied to each changed entry",
			},
			&cli.BoolFlag{
				Name:  "exit-code",
				Usage: "Exit with status 1 when the documents differ",
			},
		},
		Action: runDiff,
	}
}

// DiffResult is the outcome of the diff command.
type DiffResult struct {
	Old     string            `json:"old" yaml:"old"`
	New     string            `json:"new" yaml:"new"`
	Same    bool              `json:"same" yaml:"same"`
	Changes map[string]string `json:"changes" yaml:"changes"`
}

// Table implements output.Tabler.
func (r *DiffResult) Table() *output.Table {
	t := entriesTable(r.Changes)
	t.Title = fmt.Sprintf("# %s -> %s: same=%t, %d changed", r.Old, r.New, r.Same, len(r.Changes))
	return t
}

func runDiff(c *cli.Context) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}
	ctx := commandContext(c)
	oldPath, newPath := c.Args().Get(0), c.Args().Get(1)

	filter, err := service.CompileFilter(c.String("filter"))
	if err != nil {
		return err
	}

	oldSnap, err := source.NewFile("old", oldPath).Snapshot(ctx)
	if err != nil {
		return err
	}
	newSnap, err := source.NewFile("new", newPath).Snapshot(ctx)
	if err != nil {
		return err
	}

	result, err := diffSnapshots(oldSnap, newSnap, filter)
	if err != nil {
		return err
	}
	result.Old, result.New = oldPath, newPath

	if err := printResult(c, result); err != nil {
		return err
	}
	if c.Bool("exit-code") && !result.Same {
		return cli.Exit("", 1)
	}
	return nil
}

// diffSnapshots compares next against prev. Same reports full equality,
// so a removal-only edit yields Same=false with no changes.
func diffSnapshots(prev, next map[string]string, filter *service.Filter) (*DiffResult, error) {
	cmp := comparer.New[string, string]()
	if err := cmp.Update(prev); err != nil {
		return nil, err
	}

	same, err := cmp.IsSame(next)
	if err != nil {
		return nil, err
	}
	changes, err := cmp.Compare(next)
	if err != nil {
		return nil, err
	}

	kept, err := filter.Apply("diff", changes)
	if err != nil {
		return nil, err
	}
	return &DiffResult{Same: same, Changes: kept}, nil
}
