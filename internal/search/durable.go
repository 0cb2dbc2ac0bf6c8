package search

import (
	"context"

	"github.com/dhiway/jobstack-bap/internal/catalogue"
)

// QueryDurableStore implements the /api/v3/search path of spec §4.5.2: an
// alternate, profile-scoped query against the persistent matches store
// rather than the in-flight cron cache.
func QueryDurableStore(ctx context.Context, store catalogue.Store, profileID string, f Filter) ([]catalogue.JobWithScore, int64, error) {
	return store.ListJobsByFilter(ctx, profileID, catalogue.JobFilter{
		Provider: f.Provider,
		Role:     f.Role,
		Primary:  f.Primary,
		Exclude:  f.Exclude,
		FreeText: f.FreeText,
		Limit:    f.Limit,
		Offset:   f.Offset,
	})
}
