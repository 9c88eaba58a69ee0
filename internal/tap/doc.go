// Package tap implements the cloudlink diagnostic tap server.
//
// The tap sits between a serial-over-TCP bridge (for example ser2net
// pointed at the radio module's UART) and any number of diagnostic clients.
// It accepts bridge connections on a TCP listener, extracts device-cloud
// frames from the byte stream, decodes each body with the protocol codec and
// publishes the decoded field view as a JSON event over a WebSocket stream.
//
// Malformed frames are logged and skipped; the stream decoder resynchronizes
// on the next start delimiter, so one corrupted frame never stalls the tap.
//
// The tap is read-only: it never writes to the bridge connection and never
// injects frames toward the module.
package tap
