// Package store provides SQLite-backed storage for the content catalog and
// the audit log.
//
// Two tables:
//   - content_keys: catalog of known content keys, written by ingestion
//   - content_audits: append-only audit outcomes, written only by the auditor
//
// Audit rows carry no idempotency key. The same content key may be audited
// any number of times and every outcome is kept.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Audits must reference an existing catalog row
//
// Timestamps are written in UTC.
package store
