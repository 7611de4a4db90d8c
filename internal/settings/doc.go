// Package settings holds the live validated configuration for the relay:
// uplink credentials, local access point parameters, and the power-save
// policy, together with the per-field validation rules used both at boot
// and during control-channel reconciliation.
//
// # Ownership
//
// A single Store instance is created at startup (factory defaults,
// optionally overlaid by a YAML boot file) and lives for the process
// lifetime. It is mutated only by the reconciler running on the engine
// tick goroutine; see internal/engine for the staging discipline that
// keeps the store single-writer.
//
// # Validation
//
// Validation is per field and context dependent. Boot file values that
// fail their range check abort startup with an error. Control-channel
// values that fail the same check are dropped individually while the
// rest of the payload still applies; that policy lives in
// internal/reconcile.
package settings
