// Package preflight provides the readiness checks behind the doctor
// command: external binaries, the cache directory and provider credentials.
//
// Offline checks never touch the network. With Options.Online set, RunAll
// also sends one health-check completion to the configured chat provider.
package preflight
