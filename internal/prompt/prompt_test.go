package prompt

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illarion/confvault/internal/schema"
)

func TestTerminalAsk(t *testing.T) {
	pending := schema.ConfigMap{
		"BIND_ADDRESS": schema.String("127.0.0.1"),
		"MQTT_PORT":    schema.Number(8883),
		"MQTT_USER":    schema.String("mqtt"),
	}
	// sorted order: BIND_ADDRESS, MQTT_PORT, MQTT_USER
	in := strings.NewReader("0.0.0.0\nnot-a-port\n1883\n\n")
	var out bytes.Buffer

	got, err := NewTerminal(in, &out).Ask(context.Background(), pending)
	require.NoError(t, err)

	want := schema.ConfigMap{
		"BIND_ADDRESS": schema.String("0.0.0.0"),
		"MQTT_PORT":    schema.Number(1883),
		"MQTT_USER":    schema.String("mqtt"),
	}
	assert.True(t, want.Equal(got), "got %v", got)
	assert.True(t, got["MQTT_PORT"].IsNumber())

	assert.Contains(t, out.String(), "MQTT_PORT (number) [8883]: ")
	assert.Contains(t, out.String(), "Invalid input")

	// pending is left untouched
	assert.Equal(t, "127.0.0.1", pending["BIND_ADDRESS"].String())
}

func TestTerminalAskMasksSecrets(t *testing.T) {
	pending := schema.ConfigMap{"DATABASE_PASSWORD": schema.String("password")}
	var out bytes.Buffer

	got, err := NewTerminal(strings.NewReader("hunter2\n"), &out).Ask(context.Background(), pending)
	require.NoError(t, err)

	assert.Equal(t, "hunter2", got["DATABASE_PASSWORD"].String())
	assert.NotContains(t, out.String(), "[password]")
	assert.Contains(t, out.String(), maskedValue)
}

func TestTerminalAskLastLineWithoutNewline(t *testing.T) {
	pending := schema.ConfigMap{"MQTT_HOST": schema.String("localhost")}

	got, err := NewTerminal(strings.NewReader("broker"), &bytes.Buffer{}).Ask(context.Background(), pending)
	require.NoError(t, err)
	assert.Equal(t, "broker", got["MQTT_HOST"].String())
}

func TestTerminalAskInputExhausted(t *testing.T) {
	pending := schema.ConfigMap{"A": schema.String("1"), "B": schema.String("2")}

	_, err := NewTerminal(strings.NewReader("x\n"), &bytes.Buffer{}).Ask(context.Background(), pending)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "B")
}

func TestTerminalAskCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTerminal(strings.NewReader("x\n"), &bytes.Buffer{}).Ask(ctx, schema.ConfigMap{"A": schema.String("1")})
	require.ErrorIs(t, err, context.Canceled)
}

func TestTerminalConfirm(t *testing.T) {
	tests := map[string]bool{"y\n": true, "YES\n": true, "n\n": false, "\n": false}
	for input, want := range tests {
		got, err := NewTerminal(strings.NewReader(input), &bytes.Buffer{}).Confirm("Proceed?")
		require.NoError(t, err)
		assert.Equal(t, want, got, "input %q", input)
	}
}

func TestDefaults(t *testing.T) {
	pending := schema.ConfigMap{"A": schema.Number(1)}

	got, err := Defaults{}.Ask(context.Background(), pending)
	require.NoError(t, err)
	assert.True(t, pending.Equal(got))
}

func TestPassphraseFromEnv(t *testing.T) {
	t.Setenv(PassphraseEnv, "")
	assert.Nil(t, PassphraseFromEnv())

	t.Setenv(PassphraseEnv, "s3cret")
	assert.Equal(t, []byte("s3cret"), PassphraseFromEnv())
}
