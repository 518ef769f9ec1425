// Package heatspace is a client for federated, pod-based linked-data
// spaces publishing temperature sources.
//
// # Architecture
//
// The module is organized as a read path and a write path over remote
// Turtle documents:
//
// Read path (best-effort, failures swallowed per branch):
//   - discovery: registry -> member -> catalog -> dataset -> distribution
//     walk producing deduplicated, title-ranked Source records
//   - readings: JSON payload loading with per-row validation
//   - access (decision side): inbox scanning and decision folding
//
// Write path (failures always surface):
//   - access (request side): Turtle access requests posted to data
//     owners' inboxes
//
// Supporting layers: linkeddata (Turtle fetch/parse with typed
// accessors), vocabulary (RDF terms and URL helpers), pkg/fetch
// (cache-bypassing HTTP), pkg/retry (poll backoff), statestore (local
// request-state shadow), metric (Prometheus instruments), and errors
// (the classified error taxonomy separating recoverable read failures
// from surfacing write failures).
//
// The cmd/heatspace CLI wires these together behind discover, readings,
// latest, request, decisions, and watch subcommands.
package heatspace
