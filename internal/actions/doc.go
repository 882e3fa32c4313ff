// Package actions implements the patchkit commands: each action validates
// its input, runs one engine transaction, and reports through the context's
// splog. CLI commands stay thin wrappers over these functions.
package actions
