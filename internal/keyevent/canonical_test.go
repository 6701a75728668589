package keyevent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	obj := map[string]any{
		"scan_code": int64(20),
		"action":    "down",
		"extended":  false,
	}

	data, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"action":"down","extended":false,"scan_code":20}`, string(data))
}

func TestMarshalCanonical_Deterministic(t *testing.T) {
	obj := map[string]any{
		"virtual_key": int64(64),
		"scan_code":   int64(20),
		"action":      "down",
		"character":   int64('a'),
		"extended":    false,
		"was_down":    true,
	}

	first, err := MarshalCanonical(obj)
	require.NoError(t, err)

	// Repeated marshals of the same logical value are byte-identical.
	for i := 0; i < 10; i++ {
		again, err := MarshalCanonical(obj)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	data, err := MarshalCanonical("<a>&</a>")
	require.NoError(t, err)
	assert.Equal(t, `"<a>&</a>"`, string(data))
}

func TestMarshalCanonical_NFCNormalization(t *testing.T) {
	// "e" + combining acute accent normalizes to precomposed U+00E9.
	decomposed := "é"
	data, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	assert.Equal(t, "\"é\"", string(data))
}

func TestMarshalCanonical_LineSeparatorsLiteral(t *testing.T) {
	data, err := MarshalCanonical("a b c")
	require.NoError(t, err)
	assert.Equal(t, "\"a b c\"", string(data))
}

func TestMarshalCanonical_EscapedBackslashPreserved(t *testing.T) {
	// A literal backslash followed by the text "u2028" must stay escaped.
	data, err := MarshalCanonical(`\u2028`)
	require.NoError(t, err)
	assert.Equal(t, `"\\u2028"`, string(data))
}

func TestMarshalCanonical_RejectsFloats(t *testing.T) {
	_, err := MarshalCanonical(3.14)
	assert.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"x": 1.5})
	assert.Error(t, err)
}

func TestMarshalCanonical_RejectsNull(t *testing.T) {
	_, err := MarshalCanonical(nil)
	assert.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"x": nil})
	assert.Error(t, err)
}

func TestMarshalCanonical_Arrays(t *testing.T) {
	data, err := MarshalCanonical([]any{int64(1), "two", true})
	require.NoError(t, err)
	assert.Equal(t, `[1,"two",true]`, string(data))
}

func TestMarshalCanonical_Nested(t *testing.T) {
	obj := map[string]any{
		"event": map[string]any{
			"scan_code": int64(22),
			"action":    "up",
		},
		"seq": int64(3),
	}
	data, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"event":{"action":"up","scan_code":22},"seq":3}`, string(data))
}
