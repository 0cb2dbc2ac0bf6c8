package apply

import (
	"context"
	"encoding/json"

	"github.com/dhiway/jobstack-bap/internal/catalogue"
	"github.com/dhiway/jobstack-bap/internal/errs"
)

// Drafts is a simple CRUD façade over draft_applications (spec §4.6: "a
// simpler CRUD over (user_id, job_id, bpp_id) with upsert semantics and a
// separate numeric surrogate id for direct updates/deletes").
type Drafts struct {
	store catalogue.Store
}

func NewDrafts(store catalogue.Store) *Drafts {
	return &Drafts{store: store}
}

func (d *Drafts) Upsert(ctx context.Context, userID, jobID, bppID, bppURI string, metadata json.RawMessage) (catalogue.Draft, error) {
	draft, err := d.store.UpsertDraft(ctx, catalogue.Draft{
		UserID:   userID,
		JobID:    jobID,
		BppID:    bppID,
		BppURI:   bppURI,
		Metadata: metadata,
	})
	if err != nil {
		return catalogue.Draft{}, errs.StoreUnavailable("drafts: upsert", err)
	}
	return draft, nil
}

func (d *Drafts) List(ctx context.Context, userID string) ([]catalogue.Draft, error) {
	drafts, err := d.store.ListDrafts(ctx, userID)
	if err != nil {
		return nil, errs.StoreUnavailable("drafts: list", err)
	}
	return drafts, nil
}

func (d *Drafts) Get(ctx context.Context, id int64) (*catalogue.Draft, error) {
	draft, err := d.store.GetDraft(ctx, id)
	if err != nil {
		return nil, errs.StoreUnavailable("drafts: get", err)
	}
	if draft == nil {
		return nil, errs.NotFound("drafts: get", nil)
	}
	return draft, nil
}

// Patch applies a JSON merge-patch to a draft's metadata (SPEC_FULL.md
// §11: merge-patch semantics via evanphx/json-patch, applied by the
// store's UpdateDraft).
func (d *Drafts) Patch(ctx context.Context, id int64, mergePatch json.RawMessage) (*catalogue.Draft, error) {
	draft, err := d.store.UpdateDraft(ctx, id, mergePatch)
	if err != nil {
		return nil, errs.StoreUnavailable("drafts: patch", err)
	}
	if draft == nil {
		return nil, errs.NotFound("drafts: patch", nil)
	}
	return draft, nil
}

func (d *Drafts) Delete(ctx context.Context, id int64) error {
	if err := d.store.DeleteDraft(ctx, id); err != nil {
		if err == catalogue.ErrDraftNotFound() {
			return errs.NotFound("drafts: delete", err)
		}
		return errs.StoreUnavailable("drafts: delete", err)
	}
	return nil
}
