// Package remote provides the client for the third-party commerce API.
//
// The remote catalog is the authoritative source of sellable product records.
// This package wraps every outbound call behind a process-wide sliding-window
// rate limiter and a bounded retry policy, so that callers never have to care
// about the remote quota or transient failures.
//
// # Components
//
// 1. Client: HTTP JSON client implementing the API interface. Every call
// waits for a rate-limiter slot before going on the wire, and retries
// throttled (429) responses with exponential backoff plus jitter, and
// network-level failures with a fixed delay. Malformed-request responses
// (400/422) fail immediately.
//
// 2. Limiter: sliding-window call budget shared by all sync runs in the
// process. A throttled attempt is forgiven so it does not consume quota.
//
// 3. Policy: pure backoff computation, separated from I/O so it can be
// unit tested without sleeping.
//
// # Usage
//
//	limiter := remote.NewLimiter(4, time.Second)
//	client := remote.NewClient(cfg, limiter, logger)
//	locations, err := client.ListLocations(ctx)
package remote
