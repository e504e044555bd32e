// Package game holds the per-player round state machine and the registry that
// owns one machine per active session key.
//
// A Machine serializes every operation on its own mutex, so concurrent
// requests from the same player are applied one after another while different
// players progress in parallel. The Registry's lock covers only its map.
package game
