// Package source defines the provider adapter contract and the shared
// HTTP client used by all adapters.
//
// Adapters are stateless: each Fetch performs one GET against the
// provider, retries transient failures with exponential backoff, and
// maps the provider's native shape into model.MarketSnapshot values.
// Snapshot timestamps are left zero; the orchestrator assigns one
// shared capture time per tick at persistence.
package source
