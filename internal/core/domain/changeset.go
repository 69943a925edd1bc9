package domain

import (
	"crypto/rand"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// ID prefixes.
const (
	ChangeSetIDPrefix = "chg-"
	PollIDPrefix      = "poll-"
)

// ChangeSet is the outcome of one poll that found new or changed entries.
type ChangeSet struct {
	// ID has the form chg-{ulid_lowercase}.
	ID string `json:"id" yaml:"id"`

	// Source is the name of the source that was polled.
	Source string `json:"source" yaml:"source"`

	// Sequence counts polls of Source that produced a change set, from 1.
	Sequence uint64 `json:"sequence" yaml:"sequence"`

	// ObservedAt is when the snapshot was taken.
	ObservedAt time.Time `json:"observed_at" yaml:"observed_at"`

	// Initial is true when the comparer had no snapshot before this poll,
	// so Changes holds the full snapshot.
	Initial bool `json:"initial" yaml:"initial"`

	// Changes holds the new or changed entries. Removed keys never appear.
	Changes map[string]string `json:"changes" yaml:"changes"`
}

// NewChangeSet creates a ChangeSet with a generated ID.
func NewChangeSet(source string, seq uint64, observedAt time.Time, initial bool, changes map[string]string) (*ChangeSet, error) {
	id, err := newPrefixedID(ChangeSetIDPrefix, observedAt)
	if err != nil {
		return nil, err
	}
	if changes == nil {
		changes = make(map[string]string)
	}
	return &ChangeSet{
		ID:         id,
		Source:     source,
		Sequence:   seq,
		ObservedAt: observedAt,
		Initial:    initial,
		Changes:    changes,
	}, nil
}

// Keys returns the changed keys in sorted order.
func (c *ChangeSet) Keys() []string {
	keys := make([]string, 0, len(c.Changes))
	for k := range c.Changes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Len returns the number of changed entries.
func (c *ChangeSet) Len() int {
	return len(c.Changes)
}

// Empty reports whether the change set carries no entries.
func (c *ChangeSet) Empty() bool {
	return len(c.Changes) == 0
}

// GeneratePollID returns a new poll-{ulid_lowercase} identifier.
func GeneratePollID() (string, error) {
	return newPrefixedID(PollIDPrefix, time.Now())
}

// IsValidChangeSetID checks the chg-{ulid} format, case-insensitively.
func IsValidChangeSetID(id string) bool {
	id = strings.ToLower(id)
	if !strings.HasPrefix(id, ChangeSetIDPrefix) {
		return false
	}
	rest := id[len(ChangeSetIDPrefix):]
	if len(rest) != ulid.EncodedSize {
		return false
	}
	_, err := ulid.ParseStrict(strings.ToUpper(rest))
	return err == nil
}

func newPrefixedID(prefix string, at time.Time) (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(at), entropy)
	if err != nil {
		return "", ErrInternal.WithCause(err)
	}
	return prefix + strings.ToLower(id.String()), nil
}
