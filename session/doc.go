// Package session provides the persisted half of the client session: the [Session] and
// [PendingVerification] models, the four-key storage layout, and [Store] backends
// (in-memory, Redis, SQLite).
//
// # Storage layout
//
// A device holds at most four string keys: [KeyToken], [KeyUserID], [KeyRole] and
// [KeyPendingID]. Their presence is the only source of truth at startup. A session is read
// as present only when the first three are all non-empty; any partial combination reads
// as absent.
//
// # Architecture boundaries
//
// This package owns persistence only. It does NOT classify HTTP responses, fetch avatars,
// or hold in-memory state; those belong to the Manager in the root package.
//
// # What this package must NOT do
//
//   - Import quizClient, api, or middleware (no upward imports).
//   - Interpret token contents.
package session
