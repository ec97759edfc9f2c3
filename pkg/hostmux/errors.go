package hostmux

import (
	"errors"
	"fmt"

	"github.com/sandia-minimega/icdrpc/v2/pkg/icd"
)

var errClosed = errors.New("hostmux: client is shutting down")

// HostErrKind enumerates the failure modes of HostClient.Call (spec.md
// 4.5: "HostErr<WE> covers {Wire(WE), BadResponse, Retries, Postcard,
// Closed}"). WE is concretely icd.WireError in this implementation,
// since that's the only wire error type the standard ICD defines.
type HostErrKind int

const (
	HostErrWire HostErrKind = iota
	HostErrBadResponse
	HostErrRetries
	HostErrCodec
	HostErrClosed
)

// HostErr is returned by Call whenever the request/response cycle fails
// for a protocol-level (not application-level) reason.
type HostErr struct {
	Kind HostErrKind
	Wire icd.WireError
	Err  error
}

func (e *HostErr) Error() string {
	switch e.Kind {
	case HostErrWire:
		return fmt.Sprintf("hostmux: device reported: %v", e.Wire)
	case HostErrBadResponse:
		return "hostmux: response did not match the expected type"
	case HostErrRetries:
		return "hostmux: exhausted retry budget waiting for a response"
	case HostErrCodec:
		return fmt.Sprintf("hostmux: codec error: %v", e.Err)
	default:
		return "hostmux: client closed"
	}
}

func (e *HostErr) Unwrap() error { return e.Err }
