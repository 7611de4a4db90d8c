// Package engine coordinates the relay's components under a single-writer
// discipline.
//
// All state mutation happens on the tick goroutine. The control-channel
// transport runs on its own goroutines and is only allowed to stage raw
// payloads into a single-slot buffer (StageConfig) or flag peer
// attachment (NotifyPeerAttached); the next tick drains the buffer,
// reconciles it into the settings store, applies the affected radio
// operations, polls the connection supervisor and lets the status
// publisher emit.
//
// The tick source is a periodic scheduler entry feeding a one-slot
// channel, so a tick that fires while the loop is blocked in a bounded
// connect attempt is dropped instead of piling up.
package engine
