// Package codec abstracts the body serializer used for request, response,
// and topic payloads. spec.md treats this as an "external serializer"
// concern deliberately left pluggable (spec.md 1, Non-goals); the
// reference implementation here uses encoding/gob, the teacher's own
// choice for internal/ron command/response framing.
package codec

// Codec marshals and unmarshals message bodies. Implementations must be
// safe for concurrent use.
type Codec interface {
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}

// Default is the package-wide codec used when none is supplied explicitly
// to a Dispatcher or HostClient.
var Default Codec = GobCodec{}
