// Package transport carries request frames between TCP clients and the
// engine.
//
// Each accepted connection gets a session id, a reader goroutine that cuts
// the byte stream into fixed-size frames and enqueues them on the engine,
// and a writer goroutine that sends the responses the tick produces. The
// engine never sees a socket; the transport never sees engine state.
//
// Connections beyond the configured maximum are accepted and closed
// immediately.
package transport
