// Package xlog builds slog loggers that fan records out to a console sink and
// to per-level (or combined) log files.
//
// A Logger owns its files. Configure installs one as the process default and
// closes the one it replaces. Records are attributed to a source through the
// "module" attribute; sources can be suppressed everywhere or only on the
// console and info sinks.
package xlog
