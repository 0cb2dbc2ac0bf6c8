package catalogue

import (
	"encoding/json"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

// applyMergePatch folds patch onto doc using RFC 7396 semantics, the same
// merge-patch the teacher's config reload path applies to live documents.
// A nil/empty doc is treated as an empty object so the first PATCH to a
// draft with no metadata still succeeds.
func applyMergePatch(doc, patch json.RawMessage) (json.RawMessage, error) {
	if len(doc) == 0 {
		doc = json.RawMessage(`{}`)
	}
	if len(patch) == 0 {
		return doc, nil
	}
	merged, err := jsonpatch.MergePatch(doc, patch)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(merged), nil
}
