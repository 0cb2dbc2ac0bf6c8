package transient

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyBuildersAreStableAndDistinct(t *testing.T) {
	require.Equal(t, "search:qh1:bpp1", SearchResultKey("qh1", "bpp1"))
	require.Equal(t, "search:qh1:*", SearchResultPattern("qh1"))
	require.Equal(t, "txn_to_query:t1", TxnToQueryKey("t1"))
	require.Equal(t, "last_call:qh1", ThrottleKey("qh1"))
	require.Equal(t, "cron_jobs:t1:bpp1", CronJobsKey("t1", "bpp1"))
	require.Equal(t, "cron_jobs:t1:*", CronJobsPattern("t1"))
	require.Equal(t, "cron_txn:latest", CronLatestKey())
}

func TestSearchResultKeyDiffersByBPP(t *testing.T) {
	require.NotEqual(t, SearchResultKey("qh1", "bpp1"), SearchResultKey("qh1", "bpp2"))
}
