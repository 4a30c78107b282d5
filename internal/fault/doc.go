// Package fault defines the flat status-code enumeration shared by the whole
// runtime core and the error type that carries it.
//
// Codes are part of the wire protocol: a failed request is answered with the
// code of the error that aborted it and an empty payload. Codes are also
// grouped into a small taxonomy (capacity, protocol, ordering, range,
// not-found, internal) for callers that only need to decide whether to
// retry.
package fault
