// Package artifact implements the process-local artifact stores.
//
// FileStore keeps one file per artifact in a shared directory and is the default
// backend; MemoryStore keeps payloads in a map for single-instance development and
// tests. Both hand out unguessable ids that never encode the artifact's label, and
// both treat Release as idempotent and infallible from the caller's point of view.
// The Redis-backed store lives in internal/adapter/redis.
package artifact
