// Package consensusengine implements weighted consensus voting inside the
// governance context.
//
// One parameterized module serves moderation flags, governance proposals and
// disputes. The eligibility calculator derives a voter's weight from a stored
// profile, the ballot tracker records one weight-frozen ballot per voter and
// subject, and the resolution engine applies the subject's snapshotted policy
// and dispatches its action on approval. All state lives behind the
// ports.Ledger key-value abstraction; every entry point is one atomic ledger
// call, and events leave through the ledger outbox.
package consensusengine
