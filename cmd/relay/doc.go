// Package main runs the in-memory relay used by hushwire during development
// and tests. It stores published prekey bundles, hands out one-time prekeys
// one per bundle fetch, and queues encrypted envelopes until the recipient
// acknowledges them.
//
// HTTP API
//
//	POST /register
//	    Store a Registration: the user's bundle plus a batch of one-time
//	    prekeys.
//
//	GET /bundle/{username}/{device}
//	    Return the published bundle with one one-time prekey attached and
//	    consumed. When the batch is exhausted the bundle is served without
//	    one.
//
//	POST /envelopes
//	    Enqueue an Envelope for its recipient and push it to any connected
//	    stream. If Timestamp is zero, the server fills in the current Unix
//	    time.
//
//	GET /envelopes/{username}?limit=N
//	    Return up to N queued envelopes without removing them. If limit is
//	    absent or zero, all queued envelopes are returned.
//
//	POST /envelopes/{username}/ack { "ids": [...] }
//	    Drop the listed envelopes from the queue.
//
//	POST /envelopes/{username}/nack { "id": ..., "reason": ... }
//	    Drop one envelope the recipient could not process; the reason is
//	    logged.
//
//	GET /stream/{username}
//	    Upgrade to a websocket and push envelopes as they are enqueued.
//	    Streamed envelopes stay queued until acknowledged, so a dropped
//	    connection loses nothing.
//
// All state is held in memory and lost on process exit. The relay never
// sees plaintext or private keys; it stores ciphertext and public bundles
// only.
package main
