// Package relay is the HTTP client for a hushwire relay.
//
// The relay stores and forwards sealed envelopes and serves prekey bundles;
// it never sees a plaintext or a private key. The client covers:
//
//   - Publishing this device's prekey bundle.
//   - Fetching a peer's bundle (which consumes one of their one-time
//     prekeys server-side).
//   - Sending envelopes and fetching the pending queue.
//   - Acknowledging processed envelopes and reporting failures.
//   - A websocket stream for live delivery.
//
// All requests are JSON, accept a context, and report non-2xx statuses as
// errors carrying the method, path and status text.
package relay
