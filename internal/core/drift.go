package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/illarion/confvault/internal/schema"
)

// Drift describes how the stored key set differs from the schema
type Drift struct {
	NewKeys   []string
	StaleKeys []string
	Stored    schema.ConfigMap
	Schema    schema.ConfigMap
}

// Empty reports whether the store already matches the schema
func (d *Drift) Empty() bool {
	return len(d.NewKeys) == 0 && len(d.StaleKeys) == 0
}

// Drift reads the store strictly and reports pending changes without
// prompting, writing or recovering
func (r *Reconciler) Drift(ctx context.Context) (*Drift, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stored, err := r.store.Read()
	if err != nil {
		return nil, r.storeError(err)
	}

	newKeys, staleKeys := schema.Diff(stored, r.schema)
	return &Drift{
		NewKeys:   newKeys,
		StaleKeys: staleKeys,
		Stored:    stored,
		Schema:    r.schema.Clone(),
	}, nil
}

// Render produces a line diff of the stored key set against the schema.
// Returns an empty string when there is no drift.
func (d *Drift) Render() string {
	if d.Empty() {
		return ""
	}

	dmp := diffmatchpatch.New()
	storedText, schemaText := keyLines(d.Stored), keyLines(d.Schema)

	// Line-mode diff, one key per line
	a, b, lineArray := dmp.DiffLinesToChars(storedText, schemaText)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var out strings.Builder
	out.WriteString("--- stored\n")
	out.WriteString("+++ schema\n")
	for _, diff := range diffs {
		for _, key := range strings.Split(strings.TrimSuffix(diff.Text, "\n"), "\n") {
			if key == "" {
				continue
			}
			switch diff.Type {
			case diffmatchpatch.DiffEqual:
				fmt.Fprintf(&out, "  %s\n", key)
			case diffmatchpatch.DiffDelete:
				fmt.Fprintf(&out, "- %s (stale, will be pruned)\n", key)
			case diffmatchpatch.DiffInsert:
				fmt.Fprintf(&out, "+ %s (new, default %s)\n", key, displayValue(key, d.Schema[key]))
			}
		}
	}
	return out.String()
}

func keyLines(m schema.ConfigMap) string {
	var b strings.Builder
	for _, k := range m.Keys() {
		b.WriteString(k)
		b.WriteByte('\n')
	}
	return b.String()
}

func displayValue(key string, v schema.Value) string {
	if schema.IsSecret(key) {
		return "********"
	}
	if v.IsNumber() {
		return v.String()
	}
	return fmt.Sprintf("%q", v.String())
}
