// Package radio applies validated settings to the wireless subsystem.
//
// The Driver interface is the hardware boundary: it accepts access point
// parameters, uplink connect/disconnect requests, and power-save settings,
// and reports link metrics. The Controller layers the three idempotent
// apply operations on top of a Driver, reading everything from the live
// settings store. SimDriver is an in-memory Driver used by the daemon's
// simulation mode and by tests.
package radio
