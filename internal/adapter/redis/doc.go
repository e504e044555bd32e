// Package redis provides the Redis-backed artifact store and the client
// plumbing (URL parsing, instrumentation hooks) it runs on.
//
// Artifacts live under "artifact:<id>" with a TTL, so payloads orphaned by a
// crashed instance expire on their own; SweepAll removes the rest by SCAN.
package redis
