package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"
	"go.uber.org/zap/zaptest"

	"github.com/illarion/confvault/internal/config"
	"github.com/illarion/confvault/internal/core"
	"github.com/illarion/confvault/internal/keyring"
	"github.com/illarion/confvault/internal/prompt"
	"github.com/illarion/confvault/internal/storage"
)

var errNoTerminal = errors.New("no terminal in tests")

func newTestEnv(t *testing.T) (*Env, *bytes.Buffer) {
	t.Helper()
	gokeyring.MockInit()
	t.Setenv(prompt.PassphraseEnv, "correct horse")

	out := &bytes.Buffer{}
	e := &Env{
		Config: config.Config{
			StorePath:      filepath.Join(t.TempDir(), ".confvault"),
			LogLevel:       "debug",
			LogFormat:      "console",
			KDFIterations:  1000,
			MaxPasses:      core.DefaultMaxPasses,
			UseKeyring:     true,
			NonInteractive: true,
			LockTimeout:    time.Second,
		},
		Logger: zaptest.NewLogger(t),
		In:     strings.NewReader(""),
		Out:    out,
		ReadPassphrase: func(string) ([]byte, error) {
			return nil, errNoTerminal
		},
		ReadPassphraseConfirm: func() ([]byte, error) {
			return nil, errNoTerminal
		},
	}
	return e, out
}

func started(t *testing.T) (*Env, *bytes.Buffer) {
	t.Helper()
	e, out := newTestEnv(t)
	require.NoError(t, Start(context.Background(), e))
	out.Reset()
	return e, out
}

func TestStartCreatesStoreWithDefaults(t *testing.T) {
	e, out := newTestEnv(t)

	require.NoError(t, Start(context.Background(), e))
	assert.Contains(t, out.String(), "created ")
	assert.FileExists(t, e.Config.StorePath)

	out.Reset()
	require.NoError(t, Start(context.Background(), e))
	assert.Contains(t, out.String(), "in sync with schema")
}

func TestShowMasksSecrets(t *testing.T) {
	e, out := started(t)

	require.NoError(t, Show(context.Background(), e, false))
	assert.Contains(t, out.String(), "MQTT_PORT=8883\n")
	assert.Contains(t, out.String(), "DATABASE_PASSWORD=********\n")
	assert.NotContains(t, out.String(), "DATABASE_PASSWORD=password")

	out.Reset()
	require.NoError(t, Show(context.Background(), e, true))
	assert.Contains(t, out.String(), "DATABASE_PASSWORD=password\n")
}

func TestShowWithoutStore(t *testing.T) {
	e, _ := newTestEnv(t)

	err := Show(context.Background(), e, false)
	require.ErrorIs(t, err, storage.ErrNotFound)
	assert.Contains(t, describe(err), "confvault start")
}

func TestSetAndExport(t *testing.T) {
	e, out := started(t)

	require.NoError(t, Set(context.Background(), e, []string{"MQTT_PORT=1883", "BIND_ADDRESS=0.0.0.0"}))
	assert.Contains(t, out.String(), "set BIND_ADDRESS\n")

	out.Reset()
	require.NoError(t, Export(context.Background(), e))
	assert.Contains(t, out.String(), "MQTT_PORT=1883\n")
	assert.Contains(t, out.String(), `BIND_ADDRESS="0.0.0.0"`)
}

func TestSetRejectsBadInput(t *testing.T) {
	e, _ := started(t)

	err := Set(context.Background(), e, []string{"NOT_A_KEY=1"})
	require.ErrorIs(t, err, core.ErrUnknownKey)

	err = Set(context.Background(), e, []string{"MQTT_PORT=eighty"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MQTT_PORT")

	for _, raw := range []string{"NaN", "Inf", "-infinity"} {
		err = Set(context.Background(), e, []string{"MQTT_PORT=" + raw})
		require.Error(t, err, raw)
	}

	err = Set(context.Background(), e, []string{"novalue"})
	require.Error(t, err)
}

func TestSetWithWrongPassphraseKeepsStore(t *testing.T) {
	e, _ := started(t)
	before, err := os.ReadFile(e.Config.StorePath)
	require.NoError(t, err)

	t.Setenv(prompt.PassphraseEnv, "wrong")
	err = Set(context.Background(), e, []string{"MQTT_PORT=1"})
	require.ErrorIs(t, err, storage.ErrIntegrity)

	after, err := os.ReadFile(e.Config.StorePath)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestWrongPassphraseQuarantinesOnReconcile(t *testing.T) {
	e, _ := started(t)

	t.Setenv(prompt.PassphraseEnv, "wrong")
	err := Show(context.Background(), e, false)
	kind, ok := core.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, core.KindIntegrity, kind)
	assert.FileExists(t, e.Config.StorePath+storage.BackupSuffix)
	assert.NoFileExists(t, e.Config.StorePath)
}

func TestProcessEnvProjection(t *testing.T) {
	e, _ := started(t)
	t.Setenv("MQTT_PORT", "")

	require.NoError(t, Show(context.Background(), e, false))
	assert.Empty(t, os.Getenv("MQTT_PORT"), "process environment untouched by default")

	e.Config.ProcessEnv = true
	require.NoError(t, Show(context.Background(), e, false))
	assert.Equal(t, "8883", os.Getenv("MQTT_PORT"))
}

func TestDriftInSync(t *testing.T) {
	e, out := started(t)

	require.NoError(t, Drift(context.Background(), e))
	assert.Contains(t, out.String(), "no drift")
}

func TestReset(t *testing.T) {
	e, out := newTestEnv(t)
	require.ErrorIs(t, Reset(e, false), storage.ErrNotFound)

	require.NoError(t, Start(context.Background(), e))
	require.Error(t, Reset(e, false), "non-interactive reset needs --force")
	assert.FileExists(t, e.Config.StorePath)

	out.Reset()
	require.NoError(t, Reset(e, true))
	assert.Contains(t, out.String(), "removed ")
	assert.NoFileExists(t, e.Config.StorePath)
}

func TestStatus(t *testing.T) {
	e, out := newTestEnv(t)

	require.NoError(t, Status(context.Background(), e))
	assert.Contains(t, out.String(), "No store found")

	require.NoError(t, Start(context.Background(), e))
	out.Reset()
	require.NoError(t, Status(context.Background(), e))
	assert.Contains(t, out.String(), "ID:")
	assert.Contains(t, out.String(), "Format:    v1")
	assert.Contains(t, out.String(), "Keyring:   not stored")
}

func TestKeyringRoundTrip(t *testing.T) {
	e, out := started(t)

	require.NoError(t, KeyringSave(e))
	assert.Contains(t, out.String(), "saved")

	out.Reset()
	require.NoError(t, KeyringStatus(e))
	assert.Contains(t, out.String(), "stored in keyring")

	// the keyring now supplies the passphrase
	t.Setenv(prompt.PassphraseEnv, "")
	out.Reset()
	require.NoError(t, Show(context.Background(), e, false))
	assert.Contains(t, out.String(), "MQTT_PORT=8883")

	out.Reset()
	require.NoError(t, KeyringDelete(e))
	assert.Contains(t, out.String(), "removed")
	require.NoError(t, KeyringDelete(e))
	assert.Contains(t, out.String(), "No passphrase stored")
}

func TestStaleKeyringEntryIsIgnored(t *testing.T) {
	e, _ := started(t)

	id, err := e.newStore(nil).ID()
	require.NoError(t, err)
	require.NoError(t, keyring.SavePassphrase(id, "stale"))

	t.Setenv(prompt.PassphraseEnv, "")
	err = Show(context.Background(), e, false)
	require.ErrorIs(t, err, ErrPassphraseRequired)
	assert.FileExists(t, e.Config.StorePath, "a stale keyring entry must not quarantine the store")
}

func TestPasswd(t *testing.T) {
	e, out := started(t)
	require.NoError(t, KeyringSave(e))

	e.Config.NonInteractive = false
	e.ReadPassphraseConfirm = func() ([]byte, error) {
		return []byte("battery staple"), nil
	}
	out.Reset()
	require.NoError(t, Passwd(e))
	assert.Contains(t, out.String(), "Keyring updated")
	assert.Contains(t, out.String(), "passphrase changed")

	e.Config.NonInteractive = true

	// the old passphrase no longer opens the store
	err := Drift(context.Background(), e)
	kind, _ := core.KindOf(err)
	assert.Equal(t, core.KindIntegrity, kind)
	assert.FileExists(t, e.Config.StorePath)

	t.Setenv(prompt.PassphraseEnv, "battery staple")
	require.NoError(t, Drift(context.Background(), e))

	// and the updated keyring entry does
	t.Setenv(prompt.PassphraseEnv, "")
	require.NoError(t, Drift(context.Background(), e))
}

func TestRun(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	e, out := newTestEnv(t)

	err := Run(context.Background(), e, []string{"sh", "-c", `echo "port=$MQTT_PORT"`})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "port=8883")

	err = Run(context.Background(), e, []string{"sh", "-c", "exit 3"})
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.Code)

	require.Error(t, Run(context.Background(), e, nil))
}

func TestDescribe(t *testing.T) {
	assert.Contains(t, describe(ErrPassphraseRequired), "passphrase required")
	assert.Equal(t, "passphrases do not match", describe(prompt.ErrPassphraseMismatch))

	cerr := &core.Error{Kind: core.KindCorrupt, Path: ".confvault", Removed: true}
	assert.Contains(t, describe(cerr), "run again")
}
