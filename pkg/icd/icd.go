// Package icd holds the static descriptors (Endpoint, Topic, DeviceMap)
// that every generated dispatch arm and every host call site is built
// from (spec.md 3). Because Go lacks compile-time macros, "static" here
// means "derived once, during registration, and never mutated again" —
// see pkg/dispatch and pkg/hostmux for how handlers and call sites attach
// typed Go values to these descriptors.
package icd

import (
	"github.com/sandia-minimega/icdrpc/v2/pkg/schema"
	"github.com/sandia-minimega/icdrpc/v2/pkg/wirekey"
)

// Direction says which side of the connection originates a Topic's
// messages.
type Direction int

const (
	ToServer Direction = iota
	ToClient
)

func (d Direction) String() string {
	if d == ToClient {
		return "to-client"
	}
	return "to-server"
}

// Endpoint is the static descriptor for one request/response pair.
type Endpoint struct {
	Path     string
	ReqKey   wirekey.Key
	RespKey  wirekey.Key
	ReqType  *schema.Node
	RespType *schema.Node
}

// NewEndpoint derives an Endpoint's keys from its path and the structural
// schema of the request/response zero values (spec.md 3: req_key =
// Key(path, Request schema), resp_key = Key(path, Response schema)).
func NewEndpoint(path string, req, resp interface{}) Endpoint {
	reqNode := schema.Of(req)
	respNode := schema.Of(resp)
	return Endpoint{
		Path:     path,
		ReqKey:   wirekey.Key(schema.Digest(path, reqNode)),
		RespKey:  wirekey.Key(schema.Digest(path, respNode)),
		ReqType:  reqNode,
		RespType: respNode,
	}
}

// Topic is the static descriptor for one one-way message stream.
type Topic struct {
	Path      string
	Key       wirekey.Key
	Direction Direction
	Type      *schema.Node
}

// NewTopic derives a Topic's key from its path and the structural schema
// of the message zero value.
func NewTopic(path string, direction Direction, msg interface{}) Topic {
	node := schema.Of(msg)
	return Topic{
		Path:      path,
		Key:       wirekey.Key(schema.Digest(path, node)),
		Direction: direction,
		Type:      node,
	}
}

// DeviceMap is the server's compile-time (here: registration-time)
// registry of every type, endpoint, and topic it knows about, plus the
// negotiated minimum key width that keeps all of their keys distinct
// (spec.md 3).
type DeviceMap struct {
	Endpoints []Endpoint
	Topics    []Topic
	MinKeyLen wirekey.Width
}

// AllKeys returns every registered key (request, response, and topic) in
// registration order, the input to schema.MinKeyWidth.
func (m *DeviceMap) AllKeys() []wirekey.Key {
	keys := make([]wirekey.Key, 0, 2*len(m.Endpoints)+len(m.Topics))
	for _, e := range m.Endpoints {
		keys = append(keys, e.ReqKey, e.RespKey)
	}
	for _, t := range m.Topics {
		keys = append(keys, t.Key)
	}
	return keys
}

// AllTypes collects the deduplicated set of named types reachable from
// every registered endpoint and topic (spec.md 4.1 Unique).
func (m *DeviceMap) AllTypes() []*schema.Node {
	roots := make([]*schema.Node, 0, 2*len(m.Endpoints)+len(m.Topics))
	for _, e := range m.Endpoints {
		roots = append(roots, e.ReqType, e.RespType)
	}
	for _, t := range m.Topics {
		roots = append(roots, t.Type)
	}
	return schema.Unique(roots...)
}

// Finalize computes MinKeyLen from the currently registered keys. It must
// be called after all endpoints/topics are added and before the
// DeviceMap is used to dispatch or correlate anything. Returns false if
// even 8-byte keys collide (spec.md 4.1: "the build fails").
func (m *DeviceMap) Finalize() bool {
	width, ok := schema.MinKeyWidth(m.AllKeys())
	if !ok {
		return false
	}
	m.MinKeyLen = width
	return true
}
