// Package simplepublish provides a reusable library for publishing
// structured metadata documents ("envelopes") and content-addressed binary
// assets with pluggable blob storage and search index backends.
//
// It exposes a single Service interface. Envelope operations dual-write: the
// full envelope goes to a BlobStore keyed by its caller-supplied content ID,
// and a lightweight projection of it goes to a SearchIndex. The two writes
// run as a fork-join pair with no ordering between them; both always reach a
// terminal state before the call returns, and the first error wins. There is
// no cross-backend transaction and no compensating rollback on partial
// failure; the call reports the failure and leaves the backends divergent
// (see Service.StoreEnvelope).
//
// Asset uploads are fingerprinted: each asset's bytes are streamed through a
// SHA-256 digest and published under the content-derived name
// "<basename>-<hexdigest><ext>", so identical content always resolves to the
// same immutable storage key.
//
// Implementations of blob stores (memory, filesystem, S3) live under
// storage/, search indexes (memory, Postgres, SQLite FTS5) under index/, and
// asset URL directories under urldir/.
package simplepublish
