package domain

import "context"

// Directory looks up published prekey bundles. A fetch consumes one of the
// target's one-time prekeys when any remain; consumption is owned by the
// server side.
type Directory interface {
	FetchPreKeyBundle(ctx context.Context, user Username, device DeviceID) (PreKeyBundle, error)
}

// Registry publishes this device's bundle and one-time prekey batch to the
// directory.
type Registry interface {
	Register(ctx context.Context, reg Registration) error
}

// Transport delivers sealed envelopes. Delivery is at-least-once and
// unordered; the ratchet layer absorbs both.
type Transport interface {
	SendEnvelope(ctx context.Context, env Envelope) error
}

// Inbox fetches queued envelopes for a user. Envelopes stay queued until
// acknowledged.
type Inbox interface {
	FetchEnvelopes(ctx context.Context, user Username, limit int) ([]Envelope, error)
}

// Receipts reports per-envelope processing outcomes back to the relay.
type Receipts interface {
	Acknowledge(ctx context.Context, user Username, ids []MessageID) error
	ReportFailure(ctx context.Context, user Username, id MessageID, reason string) error
}

// EnvelopeStream delivers envelopes live. Deliver is called once per
// envelope; Stream returns when ctx is cancelled or the connection drops.
type EnvelopeStream interface {
	Stream(ctx context.Context, user Username, deliver func(Envelope)) error
}
