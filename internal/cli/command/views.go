package command

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/yndnr/snapwatch-go/internal/cli/output"
	"github.com/yndnr/snapwatch-go/internal/core/domain"
	"github.com/yndnr/snapwatch-go/internal/server/httpserver/handler"
)

// tableViews renders results as tables with command-specific layouts.
// JSON and YAML output use the values unchanged.
type tableViews struct {
	output.Formatter
}

func (v tableViews) Format(w io.Writer, data any) error {
	return v.Formatter.Format(w, tableView(data))
}

func tableView(data any) any {
	switch d := data.(type) {
	case *domain.ChangeSet:
		return changeSetTable(d)
	case []*domain.ChangeSet:
		return changeSetList(d)
	case *handler.ChangesResponse:
		t := changeSetList(d.Items)
		t.Title = fmt.Sprintf("# %s: %d change set(s)", d.Source, len(d.Items))
		return t
	case *handler.ListSourcesResponse:
		return d.Sources
	case *handler.SnapshotResponse:
		t := entriesTable(d.Snapshot)
		t.Title = fmt.Sprintf("# %s: %d entries", d.Source, d.Entries)
		return t
	case *handler.PollResponse:
		switch {
		case d.ChangeSet != nil:
			return changeSetTable(d.ChangeSet)
		case d.Queued:
			return &output.Table{Title: fmt.Sprintf("# %s: poll queued", d.Source)}
		default:
			return &output.Table{Title: fmt.Sprintf("# %s: no changes", d.Source)}
		}
	case *handler.CompareResponse:
		t := entriesTable(d.Changes)
		t.Title = fmt.Sprintf("# %s: same=%t, %d changed", d.Source, d.Same, len(d.Changes))
		return t
	}
	return data
}

// changeSetTable lists the entries of one change set under a title line.
func changeSetTable(cs *domain.ChangeSet) *output.Table {
	t := entriesTable(cs.Changes)
	kind := "changed"
	if cs.Initial {
		kind = "initial"
	}
	t.Title = fmt.Sprintf("# %s #%d %s %s (%d %s)",
		cs.Source, cs.Sequence, cs.ObservedAt.Local().Format(time.RFC3339), cs.ID, cs.Len(), kind)
	return t
}

func changeSetList(items []*domain.ChangeSet) *output.Table {
	t := &output.Table{Headers: []string{"SEQ", "ID", "OBSERVED", "INITIAL", "CHANGES"}}
	for _, cs := range items {
		t.AddRow(
			strconv.FormatUint(cs.Sequence, 10),
			cs.ID,
			cs.ObservedAt.Local().Format("2006-01-02 15:04:05"),
			strconv.FormatBool(cs.Initial),
			strconv.Itoa(cs.Len()),
		)
	}
	return t
}

// entriesTable renders a flat snapshot as KEY/VALUE rows sorted by key.
func entriesTable(entries map[string]string) *output.Table {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := &output.Table{Headers: []string{"KEY", "VALUE"}}
	for _, k := range keys {
		t.AddRow(k, entries[k])
	}
	return t
}
