// Package domain defines the core domain types and interfaces.
//
// Artifact and label types, the collaborator contracts (artifact store, oracle,
// corpus, degrader, random source) and the sentinel errors shared by every layer.
// No implementation code - just contracts.
package domain
