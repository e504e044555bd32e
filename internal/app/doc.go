// Package app provides the application service layer.
//
// Orchestrates use cases: starting and advancing games, scoring guesses, serving
// artifacts, the startup sweep and the idle-session janitor. Sits between the
// HTTP handlers and the game registry.
package app
