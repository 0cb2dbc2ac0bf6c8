package transient

import "fmt"

// Key builders for the transient-store namespaces enumerated in spec §3.
// Centralizing them here means every caller agrees on the exact shape.

func SearchResultKey(queryHash, bppID string) string {
	return fmt.Sprintf("search:%s:%s", queryHash, bppID)
}

func SearchResultPattern(queryHash string) string {
	return fmt.Sprintf("search:%s:*", queryHash)
}

func TxnToQueryKey(txnID string) string {
	return fmt.Sprintf("txn_to_query:%s", txnID)
}

func ThrottleKey(queryHash string) string {
	return fmt.Sprintf("last_call:%s", queryHash)
}

func CronJobsKey(txnID, bppID string) string {
	return fmt.Sprintf("cron_jobs:%s:%s", txnID, bppID)
}

func CronJobsPattern(txnID string) string {
	return fmt.Sprintf("cron_jobs:%s:*", txnID)
}

func CronLatestKey() string {
	return "cron_txn:latest"
}

// EventStream and EventGroup are the fixed stream/group names of spec §6.
const (
	EventStream   = "app_events"
	EventGroup    = "bap_group"
	EventConsumer = "worker_1"
)
