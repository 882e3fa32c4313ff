// Package tui provides terminal output and interaction for patchkit: the
// Splog logger, color helpers for series rendering, editor round trips and
// interactive prompt models.
package tui
