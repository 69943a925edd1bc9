package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/diegoholiveira/jsonlogic/v3"

	"github.com/yndnr/snapwatch-go/internal/core/domain"
)

// Filter is a compiled JSON-logic rule evaluated once per changed entry
// against {"key": k, "value": v, "source": name}. Entries for which the
// rule result is truthy are kept.
type Filter struct {
	rule []byte
}

// CompileFilter validates rule. An empty rule yields a nil Filter, which
// keeps every entry.
func CompileFilter(rule string) (*Filter, error) {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return nil, nil
	}
	if !jsonlogic.IsValid(strings.NewReader(rule)) {
		return nil, domain.ErrSourceConfig.WithDetails("filter is not a valid JSON-logic rule")
	}
	return &Filter{rule: []byte(rule)}, nil
}

// Match evaluates the rule for one entry.
func (f *Filter) Match(source, key, value string) (bool, error) {
	if f == nil {
		return true, nil
	}

	data, err := json.Marshal(map[string]string{
		"key":    key,
		"value":  value,
		"source": source,
	})
	if err != nil {
		return false, err
	}

	var out bytes.Buffer
	if err := jsonlogic.Apply(bytes.NewReader(f.rule), bytes.NewReader(data), &out); err != nil {
		return false, fmt.Errorf("apply filter: %w", err)
	}

	var result any
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		return false, fmt.Errorf("decode filter result: %w", err)
	}
	return truthy(result), nil
}

// Apply returns the entries of changes that match. Entries whose
// evaluation fails are kept and the first error is returned alongside.
func (f *Filter) Apply(source string, changes map[string]string) (map[string]string, error) {
	if f == nil {
		return changes, nil
	}

	var firstErr error
	kept := make(map[string]string, len(changes))
	for k, v := range changes {
		ok, err := f.Match(source, k, v)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			ok = true
		}
		if ok {
			kept[k] = v
		}
	}
	return kept, firstErr
}

// truthy follows JSON-logic truthiness.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	default:
		return true
	}
}
