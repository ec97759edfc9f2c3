package icd

import (
	"fmt"

	"github.com/sandia-minimega/icdrpc/v2/pkg/schema"
	"github.com/sandia-minimega/icdrpc/v2/pkg/wirekey"
)

// Reserved paths (spec.md 4.6). Implementers must not register user
// endpoints or topics on these paths.
const (
	PingPath       = "postcard-rpc/ping"
	SchemasGetPath = "postcard-rpc/schemas/get"
	SchemaDataPath = "postcard-rpc/schema/data"
	LoggingPath    = "postcard-rpc/logging"
	ErrorPath      = "error"
)

// SchemaTotals is the reply to GetAllSchemasEndpoint: a summary of how
// much was streamed on GetAllSchemaDataTopic, including a count of entries that
// failed to serialize (spec.md 4.4 item 3, SPEC_FULL.md supplement 3).
type SchemaTotals struct {
	Types          uint32
	Endpoints      uint32
	Topics         uint32
	SerializeFails uint32
}

// SchemaDataKind tags which variant of SchemaData a given message holds.
// Go has no native sum type, so this plays the role of the Rust
// original's externally-tagged enum discriminant.
type SchemaDataKind uint8

const (
	SchemaDataKindType SchemaDataKind = iota
	SchemaDataKindEndpoint
	SchemaDataKindTopic
)

// SchemaData is streamed on GetAllSchemaDataTopic in response to
// GetAllSchemasEndpoint, one message per registered type, endpoint, or
// topic (spec.md 4.6). Only the fields relevant to Kind are meaningful;
// full field-level schema introspection is explicitly out of scope
// (spec.md 1), so the Type variant carries just the type's wire name.
type SchemaData struct {
	Kind SchemaDataKind

	// Kind == SchemaDataKindType
	TypeName string

	// Kind == SchemaDataKindEndpoint
	EndpointPath string
	RequestKey   wirekey.Key
	ResponseKey  wirekey.Key

	// Kind == SchemaDataKindTopic
	TopicPath      string
	TopicKey       wirekey.Key
	TopicDirection Direction
}

// WireErrorKind enumerates the protocol-level error variants of
// WireError (spec.md 4.6, 7).
type WireErrorKind uint8

const (
	ErrFrameTooLong WireErrorKind = iota
	ErrFrameTooShort
	ErrDeserFailed
	ErrSerFailed
	ErrUnknownKey
	ErrFailedToSpawn
	ErrKeyTooSmall
)

// WireError is sent on the reserved error key whenever a protocol-level
// (not application-level) failure occurs while dispatching a frame
// (spec.md 4.4, 4.6, 7). Len/Max are only meaningful for the
// FrameTooLong/FrameTooShort variants.
type WireError struct {
	Kind WireErrorKind
	Len  uint32
	Max  uint32
}

func (e WireError) Error() string {
	switch e.Kind {
	case ErrFrameTooLong:
		return fmt.Sprintf("frame exceeded the buffering capabilities of the server: %d > %d", e.Len, e.Max)
	case ErrFrameTooShort:
		return fmt.Sprintf("frame was shorter than the minimum frame size and was rejected: %d", e.Len)
	case ErrDeserFailed:
		return "deserialization of a message failed"
	case ErrSerFailed:
		return "serialization of a message failed, usually due to a lack of space to buffer the serialized form"
	case ErrUnknownKey:
		return "the key associated with this request was unknown"
	case ErrFailedToSpawn:
		return "the server was unable to spawn the associated handler, typically due to an exhaustion of resources"
	case ErrKeyTooSmall:
		return "the provided key is below the minimum key size calculated to avoid hash collisions, and was rejected to avoid potential misunderstanding"
	default:
		return fmt.Sprintf("unknown wire error kind %d", e.Kind)
	}
}

// Standard endpoint/topic descriptors, derived once at package init time.
var (
	PingEndpoint          = NewEndpoint(PingPath, uint32(0), uint32(0))
	GetAllSchemasEndpoint = NewEndpoint(SchemasGetPath, struct{}{}, SchemaTotals{})

	GetAllSchemaDataTopic = NewTopic(SchemaDataPath, ToClient, SchemaData{})
	LoggingTopic          = NewTopic(LoggingPath, ToClient, "")

	// ErrorKey is the key associated with WireError on ErrorPath. It is
	// not a Topic because it is not declared by user code and every
	// dispatcher implicitly knows it (spec.md 4.6).
	ErrorKey = wirekey.Key(schema.Digest(ErrorPath, schema.Of(WireError{})))
)
