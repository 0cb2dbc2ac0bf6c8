package scoring

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func decodeDoc(t *testing.T, raw string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestPointerResolvesNestedObject(t *testing.T) {
	doc := decodeDoc(t, `{"tags":{"role":"driver","jobDetails":{"title":"Delivery Driver"}}}`)

	v, ok := Pointer(doc, "/tags/role")
	require.True(t, ok)
	require.Equal(t, "driver", v)

	v, ok = Pointer(doc, "/tags/jobDetails/title")
	require.True(t, ok)
	require.Equal(t, "Delivery Driver", v)
}

func TestPointerResolvesArrayIndex(t *testing.T) {
	doc := decodeDoc(t, `{"locations":["Bengaluru","Chennai"]}`)

	v, ok := Pointer(doc, "/locations/1")
	require.True(t, ok)
	require.Equal(t, "Chennai", v)
}

func TestPointerRootDocument(t *testing.T) {
	doc := decodeDoc(t, `{"a":1}`)
	v, ok := Pointer(doc, "")
	require.True(t, ok)
	require.Equal(t, doc, v)

	v, ok = Pointer(doc, "/")
	require.True(t, ok)
	require.Equal(t, doc, v)
}

func TestPointerMissingSegmentReturnsFalse(t *testing.T) {
	doc := decodeDoc(t, `{"tags":{"role":"driver"}}`)

	_, ok := Pointer(doc, "/tags/industry")
	require.False(t, ok)

	_, ok = Pointer(doc, "/missing/path")
	require.False(t, ok)
}

func TestPointerOutOfBoundsArrayIndex(t *testing.T) {
	doc := decodeDoc(t, `{"locations":["Bengaluru"]}`)
	_, ok := Pointer(doc, "/locations/5")
	require.False(t, ok)
}

func TestPointerEscapedTokens(t *testing.T) {
	doc := decodeDoc(t, `{"a/b":{"c~d":"x"}}`)
	v, ok := Pointer(doc, "/a~1b/c~0d")
	require.True(t, ok)
	require.Equal(t, "x", v)
}

func TestAsFloat64AndAsString(t *testing.T) {
	f, ok := AsFloat64(float64(42))
	require.True(t, ok)
	require.Equal(t, float64(42), f)

	_, ok = AsFloat64("not a number")
	require.False(t, ok)

	s, ok := AsString("hello")
	require.True(t, ok)
	require.Equal(t, "hello", s)

	_, ok = AsString(42)
	require.False(t, ok)
}
