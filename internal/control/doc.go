// Package control implements the management channel: a websocket
// endpoint where a peer writes JSON configuration payloads and receives
// JSON status notifications.
//
// The transport knows nothing about configuration semantics. Incoming
// payloads are handed to a ConfigSink (the engine's staging buffer) and
// outgoing notifications arrive through the status.Notifier methods the
// Server implements (HasPeer, Notify). Peer attachment is reported to a
// PeerObserver so the engine can schedule an immediate status emission.
//
// Delivery is best-effort in both directions: a slow peer misses
// notifications rather than stalling the daemon, and payload validation
// failures are the engine's concern, not the transport's.
package control
