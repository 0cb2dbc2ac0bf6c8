package catalogue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyMergePatchMergesFields(t *testing.T) {
	doc := json.RawMessage(`{"a":1,"b":{"c":2}}`)
	patch := json.RawMessage(`{"b":{"c":3},"d":4}`)

	out, err := applyMergePatch(doc, patch)
	require.NoError(t, err)
	require.JSONEq(t, `{"a":1,"b":{"c":3},"d":4}`, string(out))
}

func TestApplyMergePatchNullRemovesKey(t *testing.T) {
	doc := json.RawMessage(`{"a":1,"b":2}`)
	patch := json.RawMessage(`{"b":null}`)

	out, err := applyMergePatch(doc, patch)
	require.NoError(t, err)
	require.JSONEq(t, `{"a":1}`, string(out))
}

func TestApplyMergePatchNilDocTreatedAsEmptyObject(t *testing.T) {
	out, err := applyMergePatch(nil, json.RawMessage(`{"a":1}`))
	require.NoError(t, err)
	require.JSONEq(t, `{"a":1}`, string(out))
}

func TestApplyMergePatchEmptyPatchReturnsDocUnchanged(t *testing.T) {
	doc := json.RawMessage(`{"a":1}`)
	out, err := applyMergePatch(doc, nil)
	require.NoError(t, err)
	require.JSONEq(t, `{"a":1}`, string(out))
}

func TestApplyMergePatchInvalidPatchErrors(t *testing.T) {
	doc := json.RawMessage(`{"a":1}`)
	_, err := applyMergePatch(doc, json.RawMessage(`not json`))
	require.Error(t, err)
}
