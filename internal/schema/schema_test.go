package schema

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueString(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"text", String("localhost"), "localhost"},
		{"integer", Number(8883), "8883"},
		{"fraction", Number(0.5), "0.5"},
		{"negative", Number(-12), "-12"},
		{"empty text", String(""), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.String())
		})
	}
}

func TestValueUnmarshalRejectsUnsupported(t *testing.T) {
	for _, raw := range []string{`null`, `true`, `[1,2]`, `{"a":1}`} {
		var v Value
		err := json.Unmarshal([]byte(raw), &v)
		require.Error(t, err, "input %s", raw)
	}
}

func TestParse(t *testing.T) {
	v, err := Parse(KindNumber, " 3306 ")
	require.NoError(t, err)
	assert.True(t, v.Equal(Number(3306)))

	_, err = Parse(KindNumber, "port")
	require.Error(t, err)

	for _, raw := range []string{"NaN", "nan", "Inf", "+Inf", "-inf", "infinity"} {
		_, err = Parse(KindNumber, raw)
		assert.Error(t, err, raw)
	}

	v, err = Parse(KindString, " spaced ")
	require.NoError(t, err)
	assert.Equal(t, " spaced ", v.String())
}

func TestEncodeDecode(t *testing.T) {
	in := ConfigMap{"HOST": String("db"), "PORT": Number(5432)}

	data, err := Encode(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"HOST":"db","PORT":5432}`, string(data))

	out, err := Decode(data)
	require.NoError(t, err)
	assert.True(t, in.Equal(out))
	assert.True(t, out["PORT"].IsNumber())
}

func TestEncodeRejectsNonFinite(t *testing.T) {
	for _, n := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := Encode(ConfigMap{"PORT": Number(n)})
		require.Error(t, err)
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := map[string]string{
		"not json":    `this is not json`,
		"null":        `null`,
		"array":       `[{"A":"1"}]`,
		"nested":      `{"A":{"B":"1"}}`,
		"boolean":     `{"A":true}`,
		"null member": `{"A":null}`,
		"truncated":   `{"A":"1"`,
	}

	for name, payload := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(payload))
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestDiff(t *testing.T) {
	schema := ConfigMap{"X": String("1"), "Y": Number(2)}

	tests := []struct {
		name      string
		stored    ConfigMap
		wantNew   []string
		wantStale []string
	}{
		{"equal", ConfigMap{"X": String("a"), "Y": Number(9)}, nil, nil},
		{"subset", ConfigMap{"X": String("1")}, []string{"Y"}, nil},
		{"superset", ConfigMap{"X": String("1"), "Y": Number(2), "Z": String("z")}, nil, []string{"Z"}},
		{"disjoint", ConfigMap{"A": String("a"), "B": String("b")}, []string{"X", "Y"}, []string{"A", "B"}},
		{"empty", ConfigMap{}, []string{"X", "Y"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newKeys, staleKeys := Diff(tt.stored, schema)
			assert.Equal(t, tt.wantNew, newKeys)
			assert.Equal(t, tt.wantStale, staleKeys)
		})
	}
}

func TestMergeDoesNotModifyInputs(t *testing.T) {
	base := ConfigMap{"a": Number(0), "b": Number(2)}
	over := ConfigMap{"a": Number(1)}

	merged := Merge(base, over)

	assert.True(t, merged.Equal(ConfigMap{"a": Number(1), "b": Number(2)}))
	assert.True(t, base["a"].Equal(Number(0)))
	assert.Len(t, over, 1)
}

func TestDefaultSchema(t *testing.T) {
	d := Default()
	assert.True(t, d["MQTT_PORT"].IsNumber())
	assert.False(t, d["BIND_ADDRESS"].IsNumber())

	// fresh copy per call
	d["BIND_ADDRESS"] = String("0.0.0.0")
	assert.Equal(t, "127.0.0.1", Default()["BIND_ADDRESS"].String())
}

func TestIsSecret(t *testing.T) {
	assert.True(t, IsSecret("DATABASE_PASSWORD"))
	assert.True(t, IsSecret("PUSHBULLET_TOKEN"))
	assert.True(t, IsSecret("api_secret"))
	assert.False(t, IsSecret("MQTT_HOST"))
}
