// Package reconcile merges untrusted configuration payloads from the
// control channel into the live settings store.
//
// Reconciliation is deliberately side-effect free beyond the store
// mutation itself: it does not touch the radio or the control channel,
// which keeps validation independently testable. The caller (the engine)
// inspects the returned Result to decide which radio operations to apply.
//
// # Acceptance rules
//
// A payload that does not parse as JSON rejects the whole message. After a
// successful parse every recognized key is evaluated on its own: a value
// inside its accepted range replaces the current setting, a value outside
// it is dropped while the rest of the payload still applies, and a value
// equal to the current setting is accepted without counting as a change.
// Credential pairs (uplink and AP) are only replaced when both identifier
// and secret arrive in the same payload.
package reconcile
