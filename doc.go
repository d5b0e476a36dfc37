// Package notify is the notification relay for automated contract-change
// remediation. It admits webhook events exactly once, validates externally
// authored notification bundles, and delivers each admitted event to a
// ticketing sink and a chat sink with per-sink outcome accounting.
//
// The package root assembles the pieces: bun-backed stores for the admission
// ledger and ticket links, provider clients for Jira, Slack, the billing
// service, and the contract registry, and the dispatch coordinator that owns
// the delivery semantics. Sub-packages can be composed directly for partial
// wiring.
package notify
