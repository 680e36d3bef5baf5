package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illarion/confvault/internal/schema"
)

func TestDrift(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, schema.ConfigMap{"X": schema.String("1"), "OLD_KEY": schema.String("x")})

	d, err := f.rec.Drift(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Y"}, d.NewKeys)
	assert.Equal(t, []string{"OLD_KEY"}, d.StaleKeys)
	assert.False(t, d.Empty())

	out := d.Render()
	assert.Contains(t, out, "--- stored\n+++ schema\n")
	assert.Contains(t, out, "+ Y (new, default 2)\n")
	assert.Contains(t, out, "- OLD_KEY (stale, will be pruned)\n")
	assert.Contains(t, out, "  X\n")

	// drift never mutates
	assert.Zero(t, f.store.forceWrites)
	assert.Empty(t, f.prompter.calls)
}

func TestDriftNone(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, testSchema)

	d, err := f.rec.Drift(context.Background())
	require.NoError(t, err)
	assert.True(t, d.Empty())
	assert.Empty(t, d.Render())
}

func TestDriftMasksSecrets(t *testing.T) {
	f := newFixture(t, nil)
	f.rec = New(f.store, f.prompter, f.env, WithSchema(schema.ConfigMap{"DB_PASSWORD": schema.String("hunter2")}))
	f.seed(t, schema.ConfigMap{})

	d, err := f.rec.Drift(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, d.Render(), "hunter2")
}

func TestDriftDoesNotRecover(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(t, testSchema)
	f.cipher.tampered = true

	_, err := f.rec.Drift(context.Background())
	e := requireKind(t, err, KindIntegrity)
	assert.False(t, e.Renamed)
	assert.True(t, f.store.Exists(), "drift must not quarantine")
	assert.False(t, f.store.BackupExists())
}
